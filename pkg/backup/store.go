package backup

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/mcenv/pkg/errors"
	"github.com/arthur-debert/mcenv/pkg/types"
)

// Store lists the archives kept in the backup directory
type Store struct {
	fs  types.FS
	dir string
}

// NewStore creates a Store over dir
func NewStore(fsys types.FS, dir string) *Store {
	return &Store{fs: fsys, dir: dir}
}

// Dir returns the backup directory
func (s *Store) Dir() string {
	return s.dir
}

// List returns every backup archive, newest first. A missing backup
// directory yields an empty list.
func (s *Store) List() ([]Record, error) {
	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrInternal, "cannot read backup directory %s", s.dir)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), archiveExt) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		record := Record{
			DisplayName: name,
			ArchivePath: filepath.Join(s.dir, entry.Name()),
		}

		if ts, ok := parseTimestamp(name); ok {
			record.Timestamp = ts
		} else if info, err := entry.Info(); err == nil {
			record.Timestamp = info.ModTime()
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].DisplayName > records[j].DisplayName
	})
	return records, nil
}

func parseTimestamp(name string) (time.Time, bool) {
	if len(name) < len(TimestampLayout) {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(TimestampLayout, name[:len(TimestampLayout)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
