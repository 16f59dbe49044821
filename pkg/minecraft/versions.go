package minecraft

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/mcenv/pkg/download"
	"github.com/arthur-debert/mcenv/pkg/errors"
	"github.com/arthur-debert/mcenv/pkg/logging"
	"github.com/arthur-debert/mcenv/pkg/paths"
	"github.com/arthur-debert/mcenv/pkg/types"
	"github.com/rs/zerolog"
)

// versionManifest is the subset of the launcher's version list we read
type versionManifest struct {
	Versions []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"versions"`
}

// versionDescriptor is the subset of a version JSON we read
type versionDescriptor struct {
	ID        string `json:"id"`
	Downloads struct {
		Client struct {
			SHA1 string `json:"sha1"`
			URL  string `json:"url"`
		} `json:"client"`
	} `json:"downloads"`
}

// VersionInstaller installs vanilla game versions into a game directory
// from the public version manifest.
type VersionInstaller struct {
	fs          types.FS
	downloader  *download.Client
	gameDir     string
	manifestURL string
	logger      zerolog.Logger
}

// NewVersionInstaller creates a VersionInstaller writing under gameDir
func NewVersionInstaller(fsys types.FS, downloader *download.Client, gameDir, manifestURL string) *VersionInstaller {
	return &VersionInstaller{
		fs:          fsys,
		downloader:  downloader,
		gameDir:     gameDir,
		manifestURL: manifestURL,
		logger:      logging.GetLogger("minecraft.versions"),
	}
}

// HasVersion reports whether the version's descriptor is present
func (v *VersionInstaller) HasVersion(id string) bool {
	_, err := v.fs.Stat(v.descriptorPath(id))
	return err == nil
}

// InstallVersion downloads the version descriptor and client jar for id.
// The descriptor is written last, so an interrupted install is retried on
// the next run.
func (v *VersionInstaller) InstallVersion(ctx context.Context, id string) error {
	logger := v.logger.With().Str("version", id).Logger()
	logger.Info().Msg("Installing game version")

	data, err := v.downloader.Bytes(ctx, v.manifestURL)
	if err != nil {
		return err
	}
	var manifest versionManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return errors.Wrap(err, errors.ErrDownloadFailed, "cannot decode version manifest")
	}

	var descriptorURL string
	for _, entry := range manifest.Versions {
		if strings.EqualFold(entry.ID, id) {
			descriptorURL = entry.URL
			break
		}
	}
	if descriptorURL == "" {
		return errors.Newf(errors.ErrNotFound, "game version %q is not in the version manifest", id).
			WithDetail("version", id)
	}

	raw, err := v.downloader.Bytes(ctx, descriptorURL)
	if err != nil {
		return err
	}
	var descriptor versionDescriptor
	if err := json.Unmarshal(raw, &descriptor); err != nil {
		return errors.Wrapf(err, errors.ErrDownloadFailed, "cannot decode descriptor for %s", id)
	}
	if descriptor.Downloads.Client.URL == "" {
		return errors.Newf(errors.ErrDownloadFailed, "descriptor for %s has no client download", id)
	}

	versionDir := paths.VersionDirIn(v.gameDir, id)
	if err := v.fs.MkdirAll(versionDir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot create %s", versionDir)
	}

	jarPath := filepath.Join(versionDir, id+".jar")
	if err := v.downloader.File(ctx, descriptor.Downloads.Client.URL, jarPath, descriptor.Downloads.Client.SHA1); err != nil {
		return err
	}

	if err := v.fs.WriteFile(v.descriptorPath(id), raw, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot write descriptor for %s", id)
	}

	logger.Info().Msg("Game version installed")
	return nil
}

func (v *VersionInstaller) descriptorPath(id string) string {
	return paths.VersionDescriptorIn(v.gameDir, id)
}
