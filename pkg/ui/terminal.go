package ui

import (
	"fmt"
	"io"
	"sort"

	"github.com/arthur-debert/mcenv/pkg/backup"
	"github.com/arthur-debert/mcenv/pkg/installer"
	"github.com/arthur-debert/mcenv/pkg/modpack"
	"github.com/pterm/pterm"
)

type terminalRenderer struct {
	w io.Writer
}

func (r *terminalRenderer) Stage(stage installer.Stage) error {
	_, err := fmt.Fprintln(r.w, stageStyle.Render("› "+capitalize(stage.String())+"…"))
	return err
}

func (r *terminalRenderer) Result(result *installer.Result) error {
	var lines []string
	if result.Kind == modpack.KindBackup {
		lines = append(lines, successStyle.Render("✓ Restored "+result.Name))
		lines = append(lines, r.row("restored", slotNames(result.Applied)))
	} else {
		lines = append(lines, successStyle.Render("✓ Installed "+result.Name))
		lines = append(lines, r.row("version", result.VersionID))
		if result.LoaderInstalled {
			lines = append(lines, r.row("loader", "installed "+result.VersionID))
		}
		lines = append(lines, r.row("applied", slotNames(result.Applied)))
		if result.Backup != nil {
			lines = append(lines, r.row("backup", pathStyle.Render(result.Backup.ArchivePath)))
		}
		lines = append(lines, mutedStyle.Render("  Start the launcher and pick the \""+result.Name+"\" profile."))
	}
	if result.CleanupErr != nil {
		lines = append(lines, warningStyle.Render("! Temporary files were not removed: "+result.CleanupErr.Error()))
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(r.w, line); err != nil {
			return err
		}
	}
	return nil
}

func (r *terminalRenderer) row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("  %-9s ", label)) + value
}

func (r *terminalRenderer) Failure(err error) error {
	f := describeFailure(err)
	header := "✗ " + f.Message
	if f.Stage != "" {
		header = "✗ Failed while " + f.Stage
	}
	if _, werr := fmt.Fprintln(r.w, errorStyle.Render(header)); werr != nil {
		return werr
	}
	if f.Stage != "" {
		if _, werr := fmt.Fprintln(r.w, "  "+f.Message); werr != nil {
			return werr
		}
	}

	keys := make([]string, 0, len(f.Details))
	for k := range f.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, werr := fmt.Fprintln(r.w, r.row(k, fmt.Sprint(f.Details[k]))); werr != nil {
			return werr
		}
	}
	return nil
}

func (r *terminalRenderer) Backups(dir string, records []backup.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(r.w, mutedStyle.Render("No backups in "+dir))
		return err
	}

	data := pterm.TableData{{"Name", "Created", "Archive"}}
	for _, rec := range records {
		data = append(data, []string{
			rec.DisplayName,
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.ArchivePath,
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.w, table)
	return err
}

func (r *terminalRenderer) Message(msg string) error {
	_, err := fmt.Fprintln(r.w, msg)
	return err
}
