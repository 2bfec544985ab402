package frames

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/photobooth/pkg/types"
)

// ParseTemplate decodes a single frame template. YAML is accepted as well as
// JSON, since every JSON template is also a YAML document.
func ParseTemplate(data []byte) (types.Frame, error) {
	var f types.Frame
	if len(bytes.TrimSpace(data)) == 0 {
		return f, fmt.Errorf("%w: empty template", ErrInvalidFrame)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return f, fmt.Errorf("parse template: %w", err)
	}
	return f, nil
}

// LoadTemplate reads and decodes a template file.
func LoadTemplate(path string) (types.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Frame{}, fmt.Errorf("load template: read %q: %w", path, err)
	}
	f, err := ParseTemplate(data)
	if err != nil {
		return f, fmt.Errorf("load template %q: %w", path, err)
	}
	return f, nil
}

// MarshalTemplate renders a frame as YAML.
func MarshalTemplate(f types.Frame) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("marshal template: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal template: %w", err)
	}
	return buf.Bytes(), nil
}
