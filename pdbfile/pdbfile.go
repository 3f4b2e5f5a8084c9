// Package pdbfile reads the debug symbols a PDB file carries about an
// executable: per-module procedure symbols (with code offsets and lengths)
// and the global public symbol table. It parses just enough of the MSF
// container and the DBI stream to reach the CodeView symbol records; type
// information and source line data are ignored.
package pdbfile

import (
	"fmt"
	"os"
)

// Procedure is a function the compiler emitted debug info for. Offset is
// relative to the start of the section identified by Segment; Length is the
// size of the function body in bytes.
type Procedure struct {
	Name    string
	Offset  uint32
	Segment uint16
	Length  uint32
}

// Module is one compiled translation unit and its procedure symbols.
type Module struct {
	Name       string
	Procedures []Procedure
}

// PublicSymbol is an entry of the global public symbol table. Publics carry
// an address but no size; Function reports whether the linker flagged the
// symbol as code.
type PublicSymbol struct {
	Name     string
	Offset   uint32
	Segment  uint16
	Function bool
}

// File holds the debug symbols extracted from a PDB.
type File struct {
	Modules []Module
	Publics []PublicSymbol
}

// Open reads and parses the PDB at path.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses raw PDB bytes.
func Parse(data []byte) (*File, error) {
	m, err := parseMSF(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDB container: %w", err)
	}

	dbi, err := m.stream(dbiStreamIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to read DBI stream: %w", err)
	}
	hdr, err := parseDBIHeader(dbi)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DBI stream: %w", err)
	}
	if uint64(dbiHeaderSize)+uint64(hdr.modInfoSize) > uint64(len(dbi)) {
		return nil, fmt.Errorf("DBI module info substream exceeds stream size")
	}
	mods, err := parseModInfos(dbi[dbiHeaderSize : dbiHeaderSize+int(hdr.modInfoSize)])
	if err != nil {
		return nil, fmt.Errorf("failed to parse DBI module list: %w", err)
	}

	res := &File{}

	for _, mi := range mods {
		mod := Module{Name: mi.name}
		// A module without a symbol stream contributed no symbols.
		if mi.symStream != 0xFFFF {
			stream, err := m.stream(uint32(mi.symStream))
			if err != nil {
				return nil, fmt.Errorf("failed to read symbols of module %q: %w", mi.name, err)
			}
			if uint64(mi.symSize) < uint64(len(stream)) {
				stream = stream[:mi.symSize]
			}
			records, err := walkSymbolRecords(stream)
			if err != nil {
				return nil, fmt.Errorf("failed to parse symbols of module %q: %w", mi.name, err)
			}
			for _, rec := range records {
				if rec.kind != sGPROC32 && rec.kind != sLPROC32 {
					continue
				}
				proc, err := parseProc(rec.data)
				if err != nil {
					return nil, fmt.Errorf("module %q: %w", mi.name, err)
				}
				mod.Procedures = append(mod.Procedures, proc)
			}
		}
		res.Modules = append(res.Modules, mod)
	}

	records, err := walkSymbolRecords(mustStreamOrEmpty(m, uint32(hdr.symRecordStream)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse public symbols: %w", err)
	}
	for _, rec := range records {
		if rec.kind != sPUB32 {
			continue
		}
		pub, err := parsePublic(rec.data)
		if err != nil {
			return nil, fmt.Errorf("public symbols: %w", err)
		}
		res.Publics = append(res.Publics, pub)
	}

	return res, nil
}

// mustStreamOrEmpty reads a stream, treating an absent stream as empty.
// Stripped PDBs can lack the symbol record stream entirely.
func mustStreamOrEmpty(m *msf, idx uint32) []byte {
	data, err := m.stream(idx)
	if err != nil {
		return nil
	}
	return data
}
