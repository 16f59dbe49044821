package modpack

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/mcenv/pkg/errors"
	"github.com/arthur-debert/mcenv/pkg/types"
)

const (
	// ManifestFile is the manifest's name at the archive root
	ManifestFile = "data.json"
	// LoaderInstallerFile is the optional mod-loader installer at the archive root
	LoaderInstallerFile = "forge.jar"
	// UnnamedModpack replaces a blank display name
	UnnamedModpack = "Unnamed modpack"
)

// Kind tells an installable modpack apart from a backup snapshot
type Kind string

const (
	KindInstall Kind = "modpack"
	KindBackup  Kind = "backup"
)

// Manifest describes an archive's payload
type Manifest struct {
	Name          string `json:"name"`
	Kind          Kind   `json:"type,omitempty"`
	GameVersion   string `json:"version,omitempty"`
	ModLoaderName string `json:"forgeName,omitempty"`
}

// IsBackup reports whether the archive is a backup to be restored
func (m *Manifest) IsBackup() bool {
	return m.Kind == KindBackup
}

// HasModLoader reports whether the manifest names a mod-loader version
func (m *Manifest) HasModLoader() bool {
	return strings.TrimSpace(m.ModLoaderName) != ""
}

// DisplayName returns the name, or UnnamedModpack when it is blank
func (m *Manifest) DisplayName() string {
	if strings.TrimSpace(m.Name) == "" {
		return UnnamedModpack
	}
	return m.Name
}

// Validate checks the fields required for the manifest's kind
func (m *Manifest) Validate() error {
	switch m.Kind {
	case KindInstall, KindBackup:
	default:
		return errors.Newf(errors.ErrManifestInvalid, "unknown manifest type %q", m.Kind).
			WithDetail("type", string(m.Kind))
	}

	if m.Kind == KindInstall && strings.TrimSpace(m.GameVersion) == "" {
		return errors.New(errors.ErrManifestInvalid, "manifest does not name a game version")
	}
	return nil
}

// ParseManifest decodes a manifest. Wrong field types and unknown type
// values are rejected; an absent type means KindInstall.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(err, errors.ErrManifestInvalid, "cannot decode manifest")
	}
	if m.Kind == "" {
		m.Kind = KindInstall
	}
	m.Name = strings.TrimSpace(m.Name)
	m.GameVersion = strings.TrimSpace(m.GameVersion)
	m.ModLoaderName = strings.TrimSpace(m.ModLoaderName)

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest reads the manifest from the root of an extracted archive
func LoadManifest(fsys types.FS, root string) (*Manifest, error) {
	path := filepath.Join(root, ManifestFile)
	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrManifestMissing, "archive has no %s", ManifestFile).
				WithDetail("path", path)
		}
		return nil, errors.Wrapf(err, errors.ErrManifestMissing, "cannot read %s", path)
	}
	return ParseManifest(data)
}

// Encode renders the manifest as indented JSON
func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot encode manifest")
	}
	return data, nil
}
