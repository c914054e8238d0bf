// Package icp handles ideal-customer-profile documents: the YAML form of a
// scoring.Profile, its content hash, and the versioned editor that swaps the
// active profile.
package icp

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadscore-cli/internal/scoring"
)

// Parse decodes and validates a YAML profile document. Unknown keys are
// rejected so a misspelled table never silently falls back to zero.
func Parse(data []byte) (scoring.Profile, error) {
	var p scoring.Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return scoring.Profile{}, eris.New("icp: empty profile document")
		}
		return scoring.Profile{}, eris.Wrap(err, "icp: parse profile")
	}
	if err := scoring.ValidateProfile(p); err != nil {
		return scoring.Profile{}, err
	}
	return p, nil
}

// LoadFile reads and parses the profile at path.
func LoadFile(path string) (scoring.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scoring.Profile{}, eris.Wrapf(err, "icp: read %s", path)
	}
	p, err := Parse(data)
	if err != nil {
		return scoring.Profile{}, eris.Wrapf(err, "icp: load %s", path)
	}
	return p, nil
}

// Marshal encodes p as a YAML document.
func Marshal(p scoring.Profile) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, eris.Wrap(err, "icp: marshal profile")
	}
	if err := enc.Close(); err != nil {
		return nil, eris.Wrap(err, "icp: marshal profile")
	}
	return buf.Bytes(), nil
}

// Builtin returns a named built-in profile.
func Builtin(name string) (scoring.Profile, error) {
	p, ok := scoring.BuiltinProfile(name)
	if !ok {
		return scoring.Profile{}, eris.Errorf("icp: unknown profile %q (built-in: %s)",
			name, strings.Join(scoring.BuiltinProfileNames(), ", "))
	}
	return p, nil
}

// Resolve loads the profile at path when set, otherwise the named built-in.
func Resolve(name, path string) (scoring.Profile, error) {
	if path != "" {
		return LoadFile(path)
	}
	return Builtin(name)
}

// Hash returns a stable hash of the profile, recorded next to every persisted
// score so results can be traced back to the exact configuration.
func Hash(p scoring.Profile) string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:16])
}
