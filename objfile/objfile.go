// Package objfile extracts the code section and the code symbols from a
// compiled executable. It understands PE and ELF containers and normalizes
// both into the same shape: a text section at its virtual load address plus
// a flat symbol list classified by kind.
package objfile

import (
	"bytes"
	"debug/elf"
	"debug/pe"
	"fmt"
	"io"
	"os"
)

// Section is a loaded code section: raw bytes and the virtual address they
// occupy once the image is mapped.
type Section struct {
	Base uint64
	Data []byte
}

// Symbol is a symbol-table entry. Code reports whether the container
// classifies it as executable code.
type Symbol struct {
	Name    string
	Address uint64
	Size    uint64
	Code    bool
}

// File is a parsed executable reduced to what function extraction needs.
// Code is nil when the container has no text section.
type File struct {
	Code    *Section
	Symbols []Symbol
}

// Open reads and parses the executable at path.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses raw executable bytes, detecting the container format from its
// magic number.
func Parse(data []byte) (*File, error) {
	switch {
	case bytes.HasPrefix(data, []byte("MZ")):
		return parsePE(data)
	case bytes.HasPrefix(data, []byte(elf.ELFMAG)):
		return parseELF(data)
	default:
		return nil, fmt.Errorf("unrecognized executable format")
	}
}

func parsePE(data []byte) (*File, error) {
	f, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PE file: %w", err)
	}
	defer f.Close()

	var imageBase uint64
	switch hdr := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		imageBase = uint64(hdr.ImageBase)
	case *pe.OptionalHeader64:
		imageBase = hdr.ImageBase
	}

	res := &File{}

	textSec := f.Section(".text")
	if textSec != nil {
		code, err := textSec.Data()
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read .text section: %w", err)
		}
		// VirtualSize < SizeOfRawData means the tail is file alignment
		// padding, not mapped code.
		if vs := uint64(textSec.VirtualSize); vs != 0 && vs < uint64(len(code)) {
			code = code[:vs]
		}
		res.Code = &Section{
			Base: imageBase + uint64(textSec.VirtualAddress),
			Data: code,
		}
	}

	for _, sym := range f.Symbols {
		if sym.SectionNumber <= 0 || int(sym.SectionNumber) > len(f.Sections) {
			continue
		}
		sec := f.Sections[sym.SectionNumber-1]
		res.Symbols = append(res.Symbols, Symbol{
			Name:    sym.Name,
			Address: imageBase + uint64(sec.VirtualAddress) + uint64(sym.Value),
			// COFF symbols carry no size; function sizes come from debug
			// info or a mapping instead.
			Size: 0,
			Code: sec.Characteristics&pe.IMAGE_SCN_CNT_CODE != 0,
		})
	}

	return res, nil
}

func parseELF(data []byte) (*File, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF file: %w", err)
	}
	defer f.Close()

	res := &File{}

	textSec := f.Section(".text")
	if textSec != nil {
		code, err := textSec.Data()
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read .text section: %w", err)
		}
		res.Code = &Section{Base: textSec.Addr, Data: code}
	}

	syms, err := f.Symbols()
	if err != nil && err != elf.ErrNoSymbols {
		return nil, fmt.Errorf("failed to read ELF symbols: %w", err)
	}
	for _, sym := range syms {
		res.Symbols = append(res.Symbols, Symbol{
			Name:    sym.Name,
			Address: sym.Value,
			Size:    sym.Size,
			Code:    elf.ST_TYPE(sym.Info) == elf.STT_FUNC,
		})
	}

	return res, nil
}
