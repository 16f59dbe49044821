package installer

// Stage names a step of a run. The value is the human readable action shown
// when the step fails.
type Stage string

const (
	StagePreflight   Stage = "checking the archive"
	StageUnpack      Stage = "unpacking the archive"
	StageManifest    Stage = "reading the modpack manifest"
	StageRestore     Stage = "restoring the backup"
	StageGameVersion Stage = "installing the game version"
	StageBackup      Stage = "backing up the game directory"
	StageModLoader   Stage = "installing the mod loader"
	StageApply       Stage = "applying modpack content"
	StageVerify      Stage = "verifying modpack content"
	StageProfile     Stage = "updating launcher profiles"
	StageCleanup     Stage = "removing temporary files"
)

func (s Stage) String() string {
	return string(s)
}

// StageError records the stage a run failed in. The wrapped error keeps its
// code, so errors.IsErrorCode sees through it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage.String() + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}
