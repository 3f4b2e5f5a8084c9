package pdbfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// CodeView symbol record kinds used by the extraction passes.
const (
	sLPROC32 = 0x110f
	sGPROC32 = 0x1110
	sPUB32   = 0x110e
)

// cvSignatureC13 prefixes module symbol streams in the current format.
const cvSignatureC13 = 4

// Public symbol flag bits (CV_PUBSYMFLAGS).
const (
	pubFlagCode     = 1 << 0
	pubFlagFunction = 1 << 1
)

// symbolRecord is one raw CodeView record: kind plus its payload.
type symbolRecord struct {
	kind uint16
	data []byte
}

// walkSymbolRecords splits a symbol stream into records. Records are
// length-prefixed: u16 length (covering kind and payload), u16 kind. A
// leading C13 signature word is skipped when present.
func walkSymbolRecords(data []byte) ([]symbolRecord, error) {
	if len(data) >= 4 && binary.LittleEndian.Uint32(data) == cvSignatureC13 {
		data = data[4:]
	}

	var records []symbolRecord
	for len(data) >= 4 {
		recLen := int(binary.LittleEndian.Uint16(data))
		if recLen < 2 || 2+recLen > len(data) {
			return nil, fmt.Errorf("symbol record length %d exceeds %d remaining bytes", recLen, len(data)-2)
		}
		records = append(records, symbolRecord{
			kind: binary.LittleEndian.Uint16(data[2:]),
			data: data[4 : 2+recLen],
		})
		data = data[2+recLen:]
	}
	return records, nil
}

// parseProc parses an S_GPROC32/S_LPROC32 payload.
//
// Layout: parent u32, end u32, next u32, length u32, dbgStart u32,
// dbgEnd u32, typeIndex u32, offset u32, segment u16, flags u8, name.
func parseProc(data []byte) (Procedure, error) {
	if len(data) < 36 {
		return Procedure{}, fmt.Errorf("procedure record too small: %d bytes", len(data))
	}
	name, err := recordName(data[35:])
	if err != nil {
		return Procedure{}, err
	}
	return Procedure{
		Name:    name,
		Offset:  binary.LittleEndian.Uint32(data[28:]),
		Segment: binary.LittleEndian.Uint16(data[32:]),
		Length:  binary.LittleEndian.Uint32(data[12:]),
	}, nil
}

// parsePublic parses an S_PUB32 payload.
//
// Layout: flags u32, offset u32, segment u16, name.
func parsePublic(data []byte) (PublicSymbol, error) {
	if len(data) < 11 {
		return PublicSymbol{}, fmt.Errorf("public symbol record too small: %d bytes", len(data))
	}
	name, err := recordName(data[10:])
	if err != nil {
		return PublicSymbol{}, err
	}
	flags := binary.LittleEndian.Uint32(data)
	return PublicSymbol{
		Name:     name,
		Offset:   binary.LittleEndian.Uint32(data[4:]),
		Segment:  binary.LittleEndian.Uint16(data[8:]),
		Function: flags&pubFlagFunction != 0,
	}, nil
}

// recordName reads the NUL-terminated name ending a symbol record. Records
// are padded, so a missing terminator means the whole tail is the name.
func recordName(data []byte) (string, error) {
	end := bytes.IndexByte(data, 0)
	if end < 0 {
		return string(data), nil
	}
	return string(data[:end]), nil
}
