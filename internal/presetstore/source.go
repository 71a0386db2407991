package presetstore

import "github.com/veleda/othala/internal/preset"

// Source is the read side of the store. Consumers that only resolve and
// apply presets should depend on this interface rather than the concrete
// *DB type to facilitate testing with fakes.
type Source interface {
	GetPreset(id string) (*preset.Preset, error)
	ListPresets() ([]*preset.Preset, error)
}

// Recorder receives audit entries for applied presets.
type Recorder interface {
	RecordApplication(path, presetID, checksum string) error
}

// Verify *DB satisfies the narrow interfaces at compile time.
var (
	_ Source   = (*DB)(nil)
	_ Recorder = (*DB)(nil)
)
