package pdbfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// The DBI stream lives at a fixed stream index in every PDB.
const dbiStreamIndex = 3

const dbiHeaderSize = 64

// dbiHeader is the fixed prefix of the DBI stream. Only the fields the
// extraction passes need are kept.
type dbiHeader struct {
	symRecordStream uint16
	modInfoSize     int32
}

// modInfo describes one compiled module and points at its symbol stream.
type modInfo struct {
	name      string
	symStream uint16
	symSize   uint32
}

func parseDBIHeader(data []byte) (dbiHeader, error) {
	if len(data) < dbiHeaderSize {
		return dbiHeader{}, fmt.Errorf("DBI stream truncated: %d bytes", len(data))
	}
	if sig := int32(binary.LittleEndian.Uint32(data)); sig != -1 {
		return dbiHeader{}, fmt.Errorf("bad DBI version signature %#x", uint32(sig))
	}
	return dbiHeader{
		symRecordStream: binary.LittleEndian.Uint16(data[20:]),
		modInfoSize:     int32(binary.LittleEndian.Uint32(data[24:])),
	}, nil
}

// parseModInfos walks the module info substream that follows the DBI header.
// Each record is a fixed 64-byte prefix, two C strings, then padding to a
// 4-byte boundary.
func parseModInfos(data []byte) ([]modInfo, error) {
	var mods []modInfo

	for len(data) > 0 {
		if len(data) < 64 {
			return nil, fmt.Errorf("module info record truncated: %d bytes left", len(data))
		}
		mi := modInfo{
			symStream: binary.LittleEndian.Uint16(data[34:]),
			symSize:   binary.LittleEndian.Uint32(data[36:]),
		}

		pos := 64
		name, n, err := cstring(data[pos:])
		if err != nil {
			return nil, fmt.Errorf("module name: %w", err)
		}
		mi.name = name
		pos += n
		_, n, err = cstring(data[pos:])
		if err != nil {
			return nil, fmt.Errorf("module object file name: %w", err)
		}
		pos += n
		if rem := pos % 4; rem != 0 {
			pos += 4 - rem
		}
		if pos > len(data) {
			pos = len(data)
		}

		mods = append(mods, mi)
		data = data[pos:]
	}

	return mods, nil
}

// cstring reads a NUL-terminated string and returns it with the number of
// bytes consumed, terminator included.
func cstring(data []byte) (string, int, error) {
	end := bytes.IndexByte(data, 0)
	if end < 0 {
		return "", 0, fmt.Errorf("unterminated string")
	}
	return string(data[:end]), end + 1, nil
}
