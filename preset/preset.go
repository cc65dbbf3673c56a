// Package preset implements the JSON preset envelope (spec section 6):
// {version, config}, written and read from a *.negpreset file. Unknown
// top-level keys would need json.RawMessage passthrough to round-trip
// forward-compatibly, but the envelope has exactly two keys so that's not
// needed; unknown *nested* config keys are silently ignored because
// json.Unmarshal's default behavior (no DisallowUnknownFields) is left in
// place deliberately, so an older NegPy build can still load a preset
// saved by a newer one with extra config fields.
package preset

import (
	"encoding/json"
	"os"

	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/negpyerr"
)

// EnvelopeVersion is the current preset schema version Save writes.
const EnvelopeVersion = 1

// Envelope is a preset file's on-disk shape.
type Envelope struct {
	Version int                    `json:"version"`
	Config  config.WorkspaceConfig `json:"config"`
}

// Load reads and parses path as a preset Envelope.
func Load(path string) (Envelope, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Envelope{}, negpyerr.Wrap(negpyerr.PathNotFound, "preset: reading "+path, err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, negpyerr.Wrap(negpyerr.PersistenceFailed, "preset: parsing "+path, err)
	}
	if env.Version <= 0 {
		return Envelope{}, negpyerr.New(negpyerr.PersistenceFailed, "preset: "+path+" has no valid version field")
	}
	return env, nil
}

// Save writes cfg as a version-tagged Envelope to path, pretty-printed for
// diffability in version control (matching a preset directory a user might
// keep under their own source control, per spec section 6's "preset
// directory" being externally serialized).
func Save(path string, cfg config.WorkspaceConfig) error {
	env := Envelope{Version: EnvelopeVersion, Config: cfg}
	raw, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return negpyerr.Wrap(negpyerr.PersistenceFailed, "preset: encoding", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return negpyerr.Wrap(negpyerr.PersistenceFailed, "preset: writing "+path, err)
	}
	return nil
}
