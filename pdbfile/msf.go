package pdbfile

import (
	"encoding/binary"
	"fmt"
)

// msfMagic opens every MSF 7.00 container.
var msfMagic = []byte("Microsoft C/C++ MSF 7.00\r\n\x1aDS\x00\x00\x00")

const superBlockSize = 32 + 6*4

// msf gives random access to the streams of an MSF 7.00 container. Streams
// are stored as scattered fixed-size blocks; the stream directory maps each
// stream to its block list.
type msf struct {
	data      []byte
	blockSize uint32
	sizes     []uint32
	blocks    [][]uint32
}

func parseMSF(data []byte) (*msf, error) {
	if len(data) < superBlockSize {
		return nil, fmt.Errorf("file too small for an MSF superblock")
	}
	for i, b := range msfMagic {
		if data[i] != b {
			return nil, fmt.Errorf("not an MSF 7.00 file")
		}
	}

	blockSize := binary.LittleEndian.Uint32(data[32:])
	numDirBytes := binary.LittleEndian.Uint32(data[44:])
	blockMapAddr := binary.LittleEndian.Uint32(data[52:])

	switch blockSize {
	case 512, 1024, 2048, 4096, 8192:
	default:
		return nil, fmt.Errorf("invalid MSF block size %d", blockSize)
	}

	m := &msf{data: data, blockSize: blockSize}

	// The block map lists the blocks holding the stream directory.
	numDirBlocks := (numDirBytes + blockSize - 1) / blockSize
	blockMap, err := m.block(blockMapAddr)
	if err != nil {
		return nil, err
	}
	if uint32(len(blockMap)) < numDirBlocks*4 {
		return nil, fmt.Errorf("stream directory spans %d blocks, block map holds %d entries",
			numDirBlocks, len(blockMap)/4)
	}

	dir := make([]byte, 0, numDirBlocks*blockSize)
	for i := uint32(0); i < numDirBlocks; i++ {
		b, err := m.block(binary.LittleEndian.Uint32(blockMap[i*4:]))
		if err != nil {
			return nil, err
		}
		dir = append(dir, b...)
	}
	dir = dir[:numDirBytes]

	if err := m.parseDirectory(dir); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *msf) parseDirectory(dir []byte) error {
	if len(dir) < 4 {
		return fmt.Errorf("stream directory truncated")
	}
	numStreams := binary.LittleEndian.Uint32(dir)
	dir = dir[4:]
	if uint64(len(dir)) < uint64(numStreams)*4 {
		return fmt.Errorf("stream directory truncated: %d streams declared", numStreams)
	}

	m.sizes = make([]uint32, numStreams)
	for i := range m.sizes {
		m.sizes[i] = binary.LittleEndian.Uint32(dir[i*4:])
	}
	dir = dir[numStreams*4:]

	m.blocks = make([][]uint32, numStreams)
	for i, size := range m.sizes {
		if size == 0xFFFFFFFF { // nil stream
			m.sizes[i] = 0
			continue
		}
		n := (size + m.blockSize - 1) / m.blockSize
		if uint64(len(dir)) < uint64(n)*4 {
			return fmt.Errorf("stream directory truncated in block list of stream %d", i)
		}
		m.blocks[i] = make([]uint32, n)
		for j := range m.blocks[i] {
			m.blocks[i][j] = binary.LittleEndian.Uint32(dir[j*4:])
		}
		dir = dir[n*4:]
	}
	return nil
}

func (m *msf) block(idx uint32) ([]byte, error) {
	start := uint64(idx) * uint64(m.blockSize)
	end := start + uint64(m.blockSize)
	if end > uint64(len(m.data)) {
		return nil, fmt.Errorf("block %d is outside the file", idx)
	}
	return m.data[start:end], nil
}

// stream reassembles stream idx from its blocks.
func (m *msf) stream(idx uint32) ([]byte, error) {
	if idx == 0xFFFF || uint64(idx) >= uint64(len(m.sizes)) {
		return nil, fmt.Errorf("stream %d does not exist", idx)
	}
	out := make([]byte, 0, m.sizes[idx])
	for _, b := range m.blocks[idx] {
		blk, err := m.block(b)
		if err != nil {
			return nil, err
		}
		out = append(out, blk...)
	}
	if uint64(len(out)) < uint64(m.sizes[idx]) {
		return nil, fmt.Errorf("stream %d declares %d bytes but its blocks hold %d", idx, m.sizes[idx], len(out))
	}
	return out[:m.sizes[idx]], nil
}
