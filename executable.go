package satsuki

import (
	"errors"

	"github.com/happyhavoc/satsuki/objfile"
	"github.com/happyhavoc/satsuki/pdbfile"
)

// Executable is a name-keyed catalogue of the functions extracted from one
// binary. It is built by an ordered pipeline of passes: the object file's
// own code symbols seed the table, then debug procedures, public symbols and
// mapping entries add names not already present. Later passes never replace
// what an earlier pass captured.
type Executable struct {
	functions map[string]*Function
}

// NewExecutable returns an empty Executable.
func NewExecutable() *Executable {
	return &Executable{functions: make(map[string]*Function)}
}

// AddFunction registers a function. Registering a name twice fails with a
// *NameConflictError and leaves the existing entry untouched.
func (e *Executable) AddFunction(name string, address uint64, data []byte) error {
	if _, ok := e.functions[name]; ok {
		return &NameConflictError{Name: name}
	}
	e.functions[name] = &Function{Name: name, Address: address, Data: data}
	return nil
}

// addAdditive inserts a function from a lower-priority source: a name
// conflict keeps the earlier entry and is not an error.
func (e *Executable) addAdditive(name string, address uint64, data []byte) error {
	err := e.AddFunction(name, address, data)
	var conflict *NameConflictError
	if errors.As(err, &conflict) {
		return nil
	}
	return err
}

// Function returns the function registered under name, or nil.
func (e *Executable) Function(name string) *Function {
	return e.functions[name]
}

// FunctionByAddress returns a function whose start address equals addr, or
// nil. The scan is linear and follows map iteration order, so when two names
// share an address the winner is arbitrary.
func (e *Executable) FunctionByAddress(addr uint64) *Function {
	for _, fn := range e.functions {
		if fn.Address == addr {
			return fn
		}
	}
	return nil
}

// FunctionsCount returns the number of registered functions.
func (e *Executable) FunctionsCount() int {
	return len(e.functions)
}

// FromObject builds an Executable from the object file's own code symbols:
// every symbol classified as code with a nonzero size becomes a function.
// An object without a text section yields an empty Executable.
func FromObject(obj *objfile.File) (*Executable, error) {
	e := NewExecutable()

	if obj.Code == nil {
		return e, nil
	}
	for _, sym := range obj.Symbols {
		if !sym.Code || sym.Size == 0 {
			continue
		}
		data, err := sliceCode(obj.Code, sym.Name, sym.Address, sym.Size)
		if err != nil {
			return nil, err
		}
		if err := e.AddFunction(sym.Name, sym.Address, data); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// FromObjectWithDebugInfo builds an Executable from the object's code
// symbols plus the PDB's per-module procedure symbols.
func FromObjectWithDebugInfo(obj *objfile.File, pdb *pdbfile.File) (*Executable, error) {
	e, err := FromObject(obj)
	if err != nil {
		return nil, err
	}
	if err := e.AddDebugProcedures(obj, pdb); err != nil {
		return nil, err
	}
	return e, nil
}

// FromObjectWithPDB builds an Executable from the object's code symbols, the
// PDB's procedure symbols, and the PDB's public function symbols sized
// through the mapping.
func FromObjectWithPDB(obj *objfile.File, mapping Mapping, pdb *pdbfile.File) (*Executable, error) {
	e, err := FromObjectWithDebugInfo(obj, pdb)
	if err != nil {
		return nil, err
	}
	if err := e.AddPublicSymbols(obj, mapping, pdb); err != nil {
		return nil, err
	}
	return e, nil
}

// FromObjectWithMapping builds an Executable from the object's code symbols
// plus the named mapping entries. It is the build path for binaries without
// any debug info.
func FromObjectWithMapping(obj *objfile.File, mapping Mapping) (*Executable, error) {
	e, err := FromObject(obj)
	if err != nil {
		return nil, err
	}
	if err := e.AddMapping(obj, mapping); err != nil {
		return nil, err
	}
	return e, nil
}

// AddDebugProcedures walks every module of the PDB and registers each
// procedure symbol with a nonzero length. Procedure offsets are relative to
// the code section. Names already present are kept as-is.
func (e *Executable) AddDebugProcedures(obj *objfile.File, pdb *pdbfile.File) error {
	if obj.Code == nil {
		return nil
	}
	for _, mod := range pdb.Modules {
		for _, proc := range mod.Procedures {
			if proc.Length == 0 {
				continue
			}
			addr := obj.Code.Base + uint64(proc.Offset)
			data, err := sliceCode(obj.Code, proc.Name, addr, uint64(proc.Length))
			if err != nil {
				return err
			}
			if err := e.addAdditive(proc.Name, addr, data); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddPublicSymbols registers the PDB's public symbols that are flagged as
// functions. Publics carry no size, so the mapping supplies one; a public
// the mapping does not size is skipped. Names already present are kept.
func (e *Executable) AddPublicSymbols(obj *objfile.File, mapping Mapping, pdb *pdbfile.File) error {
	if obj.Code == nil {
		return nil
	}
	for _, pub := range pdb.Publics {
		if !pub.Function {
			continue
		}
		size := mapping.SizeOf(pub.Name)
		if size == 0 {
			continue
		}
		addr := obj.Code.Base + uint64(pub.Offset)
		data, err := sliceCode(obj.Code, pub.Name, addr, size)
		if err != nil {
			return err
		}
		if err := e.addAdditive(pub.Name, addr, data); err != nil {
			return err
		}
	}
	return nil
}

// AddMapping registers every named mapping entry with a nonzero size. Names
// already present are kept.
func (e *Executable) AddMapping(obj *objfile.File, mapping Mapping) error {
	if obj.Code == nil {
		return nil
	}
	for _, entry := range mapping.Functions {
		if entry.Name == "" || entry.Size == 0 {
			continue
		}
		data, err := sliceCode(obj.Code, entry.Name, entry.Address, entry.Size)
		if err != nil {
			return err
		}
		if err := e.addAdditive(entry.Name, entry.Address, data); err != nil {
			return err
		}
	}
	return nil
}

// GenerateStats matches every function of e by name against other. A nil
// score marks a function that other does not have, distinct from scoring 0.
func (e *Executable) GenerateStats(other *Executable) (Stats, error) {
	stats := make(Stats, len(e.functions))
	for name, fn := range e.functions {
		counterpart := other.Function(name)
		if counterpart == nil {
			stats[name] = nil
			continue
		}
		score, err := fn.Match(counterpart)
		if err != nil {
			return nil, err
		}
		stats[name] = &score
	}
	return stats, nil
}

// Stats holds per-function match scores keyed by name. A nil value marks a
// function with no counterpart in the compared executable.
type Stats map[string]*float64

// Global aggregates the scores into one percentage. The denominator is the
// total function count: a function missing from the other side counts as
// zero, so unimplemented functions pull the global score down.
func (s Stats) Global() float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, score := range s {
		if score != nil {
			sum += *score
		}
	}
	return sum / float64(len(s))
}

// sliceCode copies the [addr, addr+size) byte range out of a code section.
// A range that leaves the section is a fatal input mismatch, never a silent
// truncation.
func sliceCode(sec *objfile.Section, name string, addr, size uint64) ([]byte, error) {
	oob := &BoundsError{
		Name:       name,
		Address:    addr,
		Size:       size,
		Section:    sec.Base,
		SectionLen: len(sec.Data),
	}
	if addr < sec.Base {
		return nil, oob
	}
	offset := addr - sec.Base
	if offset+size < offset || offset+size > uint64(len(sec.Data)) {
		return nil, oob
	}
	data := make([]byte, size)
	copy(data, sec.Data[offset:offset+size])
	return data, nil
}
