// Package ui writes installer progress, results and failures in one of
// three formats: styled terminal output, plain text or JSON.
package ui

import (
	stderrors "errors"
	"io"
	"os"
	"strings"

	"github.com/arthur-debert/mcenv/pkg/backup"
	"github.com/arthur-debert/mcenv/pkg/errors"
	"github.com/arthur-debert/mcenv/pkg/installer"
	"github.com/arthur-debert/mcenv/pkg/modpack"
)

// Renderer reports what a command did
type Renderer interface {
	// Stage announces the step an install run is starting
	Stage(stage installer.Stage) error
	// Result reports a finished install or restore
	Result(result *installer.Result) error
	// Failure reports the error that ended a command
	Failure(err error) error
	// Backups lists the archives in the backup store
	Backups(dir string, records []backup.Record) error
	// Message writes a single informational line
	Message(msg string) error
}

// NewRenderer creates a Renderer for format writing to w. FormatAuto
// inspects w when it is a file and otherwise uses FormatTerminal.
func NewRenderer(format Format, w io.Writer) (Renderer, error) {
	switch format {
	case FormatAuto:
		if f, ok := w.(*os.File); ok {
			return NewRenderer(DetectFormat(f), w)
		}
		return NewRenderer(FormatTerminal, w)
	case FormatTerminal:
		return &terminalRenderer{w: w}, nil
	case FormatText:
		return &textRenderer{w: w}, nil
	case FormatJSON:
		return newJSONRenderer(w), nil
	default:
		return nil, errors.Newf(errors.ErrInvalidArgument, "unknown format: %v", format)
	}
}

// failure is the displayable part of an error
type failure struct {
	Stage   string
	Code    errors.ErrorCode
	Message string
	Details map[string]interface{}
}

func describeFailure(err error) failure {
	f := failure{
		Code:    errors.GetErrorCode(err),
		Message: err.Error(),
		Details: errors.GetErrorDetails(err),
	}
	var stageErr *installer.StageError
	if stderrors.As(err, &stageErr) {
		f.Stage = stageErr.Stage.String()
		f.Message = stageErr.Err.Error()
	}
	return f
}

func slotNames(slots []modpack.Slot) string {
	if len(slots) == 0 {
		return "none"
	}
	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
