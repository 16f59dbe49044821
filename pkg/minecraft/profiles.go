package minecraft

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/mcenv/pkg/errors"
	"github.com/arthur-debert/mcenv/pkg/logging"
	"github.com/arthur-debert/mcenv/pkg/paths"
	"github.com/arthur-debert/mcenv/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Profile is one launcher profile entry as mcenv writes it
type Profile struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Created       string `json:"created"`
	LastUsed      string `json:"lastUsed"`
	LastVersionID string `json:"lastVersionId"`
	GameDir       string `json:"gameDir,omitempty"`
	JavaArgs      string `json:"javaArgs,omitempty"`
}

// ProfileStore edits launcher_profiles.json, keeping every key it does not
// manage intact.
type ProfileStore struct {
	fs       types.FS
	path     string
	gameDir  string
	javaArgs string
	newID    func() string
	now      func() time.Time
	logger   zerolog.Logger
}

// NewProfileStore creates a ProfileStore for the launcher in gameDir.
// profileGameDir and javaArgs are written into every new profile.
func NewProfileStore(fsys types.FS, gameDir, profileGameDir, javaArgs string) *ProfileStore {
	return &ProfileStore{
		fs:       fsys,
		path:     paths.LauncherProfilesIn(gameDir),
		gameDir:  profileGameDir,
		javaArgs: javaArgs,
		newID:    uuid.NewString,
		now:      time.Now,
		logger:   logging.GetLogger("minecraft.profiles"),
	}
}

// Path returns the launcher_profiles.json location
func (s *ProfileStore) Path() string {
	return s.path
}

// EnsureProfileFile creates an empty profile store when none exists.
// Loader installers refuse to run without one.
func (s *ProfileStore) EnsureProfileFile() error {
	if _, err := s.fs.Stat(s.path); err == nil {
		return nil
	}

	s.logger.Info().Str("path", s.path).Msg("Creating placeholder launcher profiles")
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot create %s", filepath.Dir(s.path))
	}
	if err := s.fs.WriteFile(s.path, []byte("{}"), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot write %s", s.path)
	}
	return nil
}

// AddProfile inserts a profile named name that launches versionID and
// selects it. Existing profiles with the same name are replaced.
// It returns the new profile's id.
func (s *ProfileStore) AddProfile(name, versionID string) (string, error) {
	root, err := s.read()
	if err != nil {
		return "", err
	}

	profiles := map[string]json.RawMessage{}
	if raw, ok := root["profiles"]; ok {
		if err := json.Unmarshal(raw, &profiles); err != nil || profiles == nil {
			s.logger.Warn().Msg("Launcher profiles entry is not an object, replacing it")
			profiles = map[string]json.RawMessage{}
		}
	}

	for id, raw := range profiles {
		var existing struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(raw, &existing) == nil && existing.Name == name {
			s.logger.Debug().Str("id", id).Str("name", name).Msg("Removing profile with the same name")
			delete(profiles, id)
		}
	}

	stamp := s.now().UTC().Format(time.RFC3339)
	id := s.newID()
	profile := Profile{
		Name:          name,
		Type:          "custom",
		Created:       stamp,
		LastUsed:      stamp,
		LastVersionID: versionID,
		GameDir:       s.gameDir,
		JavaArgs:      s.javaArgs,
	}

	entry, err := json.Marshal(profile)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "cannot encode profile")
	}
	profiles[id] = entry

	encodedProfiles, err := json.Marshal(profiles)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "cannot encode profiles")
	}
	root["profiles"] = encodedProfiles

	selected, _ := json.Marshal(id)
	root["selectedProfile"] = selected

	if err := s.write(root); err != nil {
		return "", err
	}

	s.logger.Info().Str("id", id).Str("name", name).Str("version", versionID).Msg("Launcher profile added")
	return id, nil
}

func (s *ProfileStore) read() (map[string]json.RawMessage, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, errors.Wrapf(err, errors.ErrInternal, "cannot read %s", s.path)
	}

	root := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrapf(err, errors.ErrProfileUpdateFailed, "%s is not a JSON object", s.path).
			WithDetail("path", s.path)
	}
	if root == nil {
		root = map[string]json.RawMessage{}
	}
	return root, nil
}

func (s *ProfileStore) write(root map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot encode launcher profiles")
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot create %s", filepath.Dir(s.path))
	}
	tmp := s.path + ".tmp"
	if err := s.fs.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot write %s", tmp)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrInternal, "cannot replace %s", s.path)
	}
	return nil
}
