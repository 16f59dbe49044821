package ui

import (
	"encoding/json"
	"io"
	"time"

	"github.com/arthur-debert/mcenv/pkg/backup"
	"github.com/arthur-debert/mcenv/pkg/installer"
	"github.com/arthur-debert/mcenv/pkg/modpack"
)

// jsonRenderer emits one indented document per result. Stage changes are
// not written so stdout stays a single parseable value.
type jsonRenderer struct {
	enc *json.Encoder
}

func newJSONRenderer(w io.Writer) *jsonRenderer {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &jsonRenderer{enc: enc}
}

type jsonBackup struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
}

type jsonResult struct {
	Kind            modpack.Kind `json:"kind"`
	Name            string       `json:"name"`
	VersionID       string       `json:"versionId,omitempty"`
	ProfileID       string       `json:"profileId,omitempty"`
	LoaderInstalled bool         `json:"loaderInstalled"`
	Applied         []string     `json:"applied"`
	Skipped         []string     `json:"skipped"`
	Backup          *jsonBackup  `json:"backup,omitempty"`
	CleanupError    string       `json:"cleanupError,omitempty"`
}

type jsonFailure struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Stage   string                 `json:"stage,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func toJSONBackup(rec backup.Record) *jsonBackup {
	return &jsonBackup{Name: rec.DisplayName, Path: rec.ArchivePath, CreatedAt: rec.Timestamp}
}

func toNames(slots []modpack.Slot) []string {
	names := make([]string, 0, len(slots))
	for _, s := range slots {
		names = append(names, s.String())
	}
	return names
}

func (r *jsonRenderer) Stage(installer.Stage) error {
	return nil
}

func (r *jsonRenderer) Result(result *installer.Result) error {
	out := jsonResult{
		Kind:            result.Kind,
		Name:            result.Name,
		VersionID:       result.VersionID,
		ProfileID:       result.ProfileID,
		LoaderInstalled: result.LoaderInstalled,
		Applied:         toNames(result.Applied),
		Skipped:         toNames(result.Skipped),
	}
	if result.Backup != nil {
		out.Backup = toJSONBackup(*result.Backup)
	}
	if result.CleanupErr != nil {
		out.CleanupError = result.CleanupErr.Error()
	}
	return r.enc.Encode(out)
}

func (r *jsonRenderer) Failure(err error) error {
	f := describeFailure(err)
	return r.enc.Encode(jsonFailure{
		Error:   f.Message,
		Code:    string(f.Code),
		Stage:   f.Stage,
		Details: f.Details,
	})
}

func (r *jsonRenderer) Backups(_ string, records []backup.Record) error {
	out := make([]*jsonBackup, 0, len(records))
	for _, rec := range records {
		out = append(out, toJSONBackup(rec))
	}
	return r.enc.Encode(out)
}

func (r *jsonRenderer) Message(msg string) error {
	return r.enc.Encode(map[string]string{"message": msg})
}
