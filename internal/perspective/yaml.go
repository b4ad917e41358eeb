package perspective

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape for perspective overrides:
//
//	worldview:
//	  - name: Archaic
//	    description: ...
//	    label: ...
//	committee:
//	  - ...
type File map[Mode][]Definition

// LoadYAML reads overrides from path and applies them on top of base.
// Modes absent from the file keep their built-in sets.
func LoadYAML(base *Registry, path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read perspectives: %w", err)
	}
	return ParseYAML(base, raw)
}

func ParseYAML(base *Registry, raw []byte) (*Registry, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse perspectives: %w", err)
	}
	out := base
	for key, defs := range file {
		mode, err := ParseMode(string(key))
		if err != nil {
			return nil, err
		}
		if len(defs) == 0 {
			return nil, fmt.Errorf("mode %q has no perspectives", mode)
		}
		for i, d := range defs {
			if d.Description == "" {
				return nil, fmt.Errorf("mode %q perspective %d: description is required", mode, i)
			}
		}
		out = out.With(mode, defs)
	}
	return out, nil
}
