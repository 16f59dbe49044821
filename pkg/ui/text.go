package ui

import (
	"fmt"
	"io"
	"sort"

	"github.com/arthur-debert/mcenv/pkg/backup"
	"github.com/arthur-debert/mcenv/pkg/installer"
	"github.com/arthur-debert/mcenv/pkg/modpack"
)

// textRenderer writes the terminal layout without styling
type textRenderer struct {
	w io.Writer
}

func (r *textRenderer) Stage(stage installer.Stage) error {
	_, err := fmt.Fprintf(r.w, "%s...\n", capitalize(stage.String()))
	return err
}

func (r *textRenderer) Result(result *installer.Result) error {
	if result.Kind == modpack.KindBackup {
		if _, err := fmt.Fprintf(r.w, "Restored %s\n  restored  %s\n", result.Name, slotNames(result.Applied)); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(r.w, "Installed %s\n  version   %s\n  applied   %s\n",
			result.Name, result.VersionID, slotNames(result.Applied)); err != nil {
			return err
		}
		if result.LoaderInstalled {
			if _, err := fmt.Fprintf(r.w, "  loader    installed %s\n", result.VersionID); err != nil {
				return err
			}
		}
		if result.Backup != nil {
			if _, err := fmt.Fprintf(r.w, "  backup    %s\n", result.Backup.ArchivePath); err != nil {
				return err
			}
		}
	}
	if result.CleanupErr != nil {
		_, err := fmt.Fprintf(r.w, "warning: temporary files were not removed: %v\n", result.CleanupErr)
		return err
	}
	return nil
}

func (r *textRenderer) Failure(err error) error {
	f := describeFailure(err)
	if f.Stage != "" {
		if _, werr := fmt.Fprintf(r.w, "Failed while %s: %s\n", f.Stage, f.Message); werr != nil {
			return werr
		}
	} else if _, werr := fmt.Fprintf(r.w, "Error: %s\n", f.Message); werr != nil {
		return werr
	}

	keys := make([]string, 0, len(f.Details))
	for k := range f.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, werr := fmt.Fprintf(r.w, "  %-9s %v\n", k, f.Details[k]); werr != nil {
			return werr
		}
	}
	return nil
}

func (r *textRenderer) Backups(dir string, records []backup.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintf(r.w, "No backups in %s\n", dir)
		return err
	}
	for _, rec := range records {
		if _, err := fmt.Fprintf(r.w, "%s\t%s\t%s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"), rec.DisplayName, rec.ArchivePath); err != nil {
			return err
		}
	}
	return nil
}

func (r *textRenderer) Message(msg string) error {
	_, err := fmt.Fprintln(r.w, msg)
	return err
}
