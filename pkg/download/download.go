package download

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"hash"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/mcenv/pkg/errors"
	"github.com/arthur-debert/mcenv/pkg/logging"
	"github.com/arthur-debert/mcenv/pkg/types"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds a single request when no client is supplied
	DefaultTimeout = 10 * time.Minute

	maxBodySize = 64 * 1024 * 1024
)

// Client fetches URLs into memory or onto a types.FS
type Client struct {
	http      *http.Client
	fs        types.FS
	userAgent string
	logger    zerolog.Logger
}

// New creates a Client. A nil httpClient gets one with DefaultTimeout.
func New(fsys types.FS, httpClient *http.Client, userAgent string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		http:      httpClient,
		fs:        fsys,
		userAgent: userAgent,
		logger:    logging.GetLogger("download"),
	}
}

// Bytes fetches url and returns the response body
func (c *Client) Bytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrDownloadFailed, "failed to read %s", url).
			WithDetail("url", url)
	}
	return data, nil
}

// File fetches url into dest. The body is written to a sibling temporary
// file first and renamed into place, so dest is never left half written.
// When sha1sum is not empty the content must match it.
func (c *Client) File(ctx context.Context, url, dest, sha1sum string) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot create directory for %s", dest)
	}

	partial := dest + ".part"
	out, err := c.fs.Create(partial)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot create %s", partial)
	}

	var h hash.Hash
	var w io.Writer = out
	if sha1sum != "" {
		h = sha1.New()
		w = io.MultiWriter(out, h)
	}

	written, copyErr := io.Copy(w, resp.Body)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		_ = c.fs.Remove(partial)
		if copyErr == nil {
			copyErr = closeErr
		}
		return errors.Wrapf(copyErr, errors.ErrDownloadFailed, "failed to download %s", url).
			WithDetail("url", url)
	}

	if h != nil {
		got := hex.EncodeToString(h.Sum(nil))
		if !strings.EqualFold(got, sha1sum) {
			_ = c.fs.Remove(partial)
			return errors.Newf(errors.ErrDownloadFailed, "checksum mismatch for %s", url).
				WithDetail("expected", sha1sum).
				WithDetail("actual", got)
		}
	}

	if err := c.fs.Rename(partial, dest); err != nil {
		_ = c.fs.Remove(partial)
		return errors.Wrapf(err, errors.ErrInternal, "cannot move download into %s", dest)
	}

	c.logger.Debug().Str("url", url).Str("dest", dest).Int64("bytes", written).Msg("Downloaded")
	return nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidArgument, "invalid url %q", url)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Info().Str("url", url).Msg("Downloading")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrDownloadFailed, "request to %s failed", url).
			WithDetail("url", url)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, errors.Newf(errors.ErrDownloadFailed, "GET %s: HTTP %d", url, resp.StatusCode).
			WithDetail("url", url).
			WithDetail("status", resp.StatusCode)
	}
	return resp, nil
}
