package satsuki

import (
	"github.com/BurntSushi/toml"
)

// Mapping is a user-declared table of function byte ranges. It supplies
// ranges when an executable carries no usable debug info, and sizes for PDB
// public symbols, which have an address but no length. Entries without a
// name are inert here; other tooling addresses them by position.
type Mapping struct {
	Functions []MappingFunction `toml:"function"`
}

// MappingFunction is one declared function range.
type MappingFunction struct {
	Name    string `toml:"name,omitempty"`
	Address uint64 `toml:"address"`
	Size    uint64 `toml:"size"`
}

// LoadMapping reads a mapping TOML file.
func LoadMapping(path string) (Mapping, error) {
	var m Mapping
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return Mapping{}, err
	}
	return m, nil
}

// SizeOf returns the declared size for name, or 0 when the mapping does not
// know the function.
func (m Mapping) SizeOf(name string) uint64 {
	for _, f := range m.Functions {
		if f.Name == name {
			return f.Size
		}
	}
	return 0
}
