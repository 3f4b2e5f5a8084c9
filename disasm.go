package satsuki

import (
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// DisassembleOptions configures Function.Disassemble.
type DisassembleOptions struct {
	// Mode is the x86 decoder mode, 32 or 64. Zero means 32.
	Mode int
	// ForceAddressZero disassembles as though the function were loaded at
	// address 0, which makes listings of position-independent fragments
	// comparable across builds.
	ForceAddressZero bool
	// ResolveNames replaces the target of direct relative calls with the
	// name of the function at that address, when the executable knows one.
	ResolveNames bool
	// ATTSyntax switches the listing from Intel to AT&T syntax.
	ATTSyntax bool
}

// Disassemble renders the function's bytes as one instruction per line.
//
// Decoding is best effort: a byte the decoder rejects is skipped and the
// decode re-synchronizes at the next byte, so hand-written or padded code
// produces a partial listing instead of an error. With ResolveNames set,
// a direct relative call whose computed target is the start address of a
// function in exe is printed as "call <name>"; every other instruction keeps
// its raw operand text.
func (f *Function) Disassemble(exe *Executable, opts DisassembleOptions) (string, error) {
	mode := opts.Mode
	if mode == 0 {
		mode = 32
	}

	base := f.Address
	if opts.ForceAddressZero {
		base = 0
	}

	var sb strings.Builder

	offset := 0
	for offset < len(f.Data) {
		inst, err := x86asm.Decode(f.Data[offset:], mode)
		if err != nil {
			offset++
			continue
		}
		pc := base + uint64(offset)

		line := f.resolveCall(exe, inst, pc, mode, opts)
		if line == "" {
			line = f.formatInst(inst, pc, opts)
		}
		sb.WriteString(line)
		sb.WriteByte('\n')

		offset += inst.Len
	}

	return sb.String(), nil
}

func (f *Function) formatInst(inst x86asm.Inst, pc uint64, opts DisassembleOptions) string {
	if opts.ATTSyntax {
		return x86asm.GNUSyntax(inst, pc, nil)
	}
	return x86asm.IntelSyntax(inst, pc, nil)
}

// resolveCall returns the "mnemonic name" line for a resolvable direct
// relative call, or "" when the instruction is anything else or the target
// has no known function.
func (f *Function) resolveCall(exe *Executable, inst x86asm.Inst, pc uint64, mode int, opts DisassembleOptions) string {
	if !opts.ResolveNames || exe == nil {
		return ""
	}
	if inst.Op != x86asm.CALL {
		return ""
	}
	rel, ok := inst.Args[0].(x86asm.Rel)
	if !ok || inst.Args[1] != nil {
		return ""
	}

	// The decoder reports the displacement relative to the next
	// instruction; the absolute target is computed with two's-complement
	// arithmetic at the width of the decoder mode.
	imm := pc + uint64(inst.Len) + uint64(int64(rel))
	if mode != 64 {
		imm = uint64(uint32(imm))
	}

	target := imm
	if opts.ForceAddressZero {
		// The listing was rebased to 0, so the computed target is an
		// offset into the function; put it back at the load address.
		if mode == 64 {
			target = f.Address + imm
		} else {
			target = uint64(uint32(f.Address) + uint32(imm))
		}
	}

	callee := exe.FunctionByAddress(target)
	if callee == nil {
		return ""
	}

	line := f.formatInst(inst, pc, opts)
	mnemonic, _, _ := strings.Cut(line, " ")
	return mnemonic + " " + callee.Name
}
