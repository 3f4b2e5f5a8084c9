package satsuki

import (
	"cmp"
	"slices"

	"golang.org/x/arch/x86/x86asm"

	"github.com/happyhavoc/satsuki/objfile"
)

// EntryPointType classifies how a candidate function entry was recognized.
type EntryPointType string

// Recognized entry point patterns.
const (
	EntryClassic    EntryPointType = "classic"     // push bp; mov bp, sp
	EntryPushOnly   EntryPointType = "push-only"   // push bp not followed by mov bp, sp
	EntryStackAlloc EntryPointType = "stack-alloc" // sub sp, imm with no frame pointer
	EntryCallTarget EntryPointType = "call-target" // direct call target without a prologue
)

// Confidence grades how reliable a candidate is.
type Confidence string

// Confidence levels for entry point candidates.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
)

// EntryPoint is a candidate function start discovered by scanning code. It
// exists to help author a mapping file for binaries that ship without
// symbols or debug info.
type EntryPoint struct {
	Address    uint64
	Type       EntryPointType
	Confidence Confidence
	CalledFrom []uint64
}

// ScanObject scans the object's code section for candidate function entry
// points. It returns nil when the object has no code section.
func ScanObject(obj *objfile.File, mode int) []EntryPoint {
	if obj.Code == nil {
		return nil
	}
	return ScanEntryPoints(obj.Code.Data, obj.Code.Base, mode)
}

// ScanEntryPoints analyzes raw machine code and returns candidate function
// entry points, combining prologue pattern detection with direct call target
// analysis. baseAddr is the virtual address corresponding to the start of
// code; mode is the x86 decoder mode, 32 or 64 (zero means 32). Addresses
// that show a prologue and are also called get the highest confidence.
func ScanEntryPoints(code []byte, baseAddr uint64, mode int) []EntryPoint {
	if mode == 0 {
		mode = 32
	}
	framePtr, stackPtr := x86asm.EBP, x86asm.ESP
	if mode == 64 {
		framePtr, stackPtr = x86asm.RBP, x86asm.RSP
	}

	candidates := make(map[uint64]*EntryPoint)
	addCandidate := func(addr uint64, typ EntryPointType) {
		if _, ok := candidates[addr]; !ok {
			candidates[addr] = &EntryPoint{Address: addr, Type: typ, Confidence: ConfidenceMedium}
		}
	}

	var callTargets []struct{ from, to uint64 }

	offset := 0
	addr := baseAddr
	var prevInsn *x86asm.Inst

	for offset < len(code) {
		inst, err := x86asm.Decode(code[offset:], mode)
		if err != nil {
			offset++
			addr++
			prevInsn = nil
			continue
		}

		// Classic frame pointer setup: push bp; mov bp, sp.
		if prevInsn != nil &&
			prevInsn.Op == x86asm.PUSH && prevInsn.Args[0] == framePtr &&
			inst.Op == x86asm.MOV && inst.Args[0] == framePtr && inst.Args[1] == stackPtr {
			addCandidate(addr-uint64(prevInsn.Len), EntryClassic)
		}

		// Push bp at start of input or right after a return.
		if inst.Op == x86asm.PUSH && inst.Args[0] == framePtr {
			if prevInsn == nil || prevInsn.Op == x86asm.RET {
				addCandidate(addr, EntryPushOnly)
			}
		}

		// No-frame-pointer function: sub sp, imm.
		if inst.Op == x86asm.SUB && inst.Args[0] == stackPtr {
			if imm, ok := inst.Args[1].(x86asm.Imm); ok && imm > 0 {
				if prevInsn == nil || prevInsn.Op == x86asm.RET {
					addCandidate(addr, EntryStackAlloc)
				}
			}
		}

		// Direct relative calls mark their target as a function start.
		if inst.Op == x86asm.CALL {
			if rel, ok := inst.Args[0].(x86asm.Rel); ok {
				target := addr + uint64(inst.Len) + uint64(int64(rel))
				if mode != 64 {
					target = uint64(uint32(target))
				}
				callTargets = append(callTargets, struct{ from, to uint64 }{addr, target})
			}
		}

		prevInsn = &inst
		offset += inst.Len
		addr += uint64(inst.Len)
	}

	end := baseAddr + uint64(len(code))
	for _, ct := range callTargets {
		if ct.to < baseAddr || ct.to >= end {
			continue
		}
		if c, ok := candidates[ct.to]; ok {
			// Prologue plus an incoming call is the strongest signal.
			c.Confidence = ConfidenceHigh
			c.CalledFrom = append(c.CalledFrom, ct.from)
		} else {
			candidates[ct.to] = &EntryPoint{
				Address:    ct.to,
				Type:       EntryCallTarget,
				Confidence: ConfidenceMedium,
				CalledFrom: []uint64{ct.from},
			}
		}
	}

	result := make([]EntryPoint, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, *c)
	}
	slices.SortFunc(result, func(a, b EntryPoint) int {
		return cmp.Compare(a.Address, b.Address)
	})

	return result
}
