// Package satsuki extracts, disassembles, and byte-compares native-code
// functions from compiled executables. It exists to support reimplementation
// projects that rebuild a legacy binary and need to measure how closely each
// rebuilt function matches the original machine code.
//
// # Function extraction
//
// An [Executable] is a name-keyed table of function byte ranges, populated
// from up to three sources in a fixed priority order: the object file's own
// code symbols ([FromObject]), PDB per-module procedure symbols, and PDB
// public symbols sized through a user-declared [Mapping]
// ([FromObjectWithPDB]). For binaries without any debug info, the mapping
// alone supplies the ranges ([FromObjectWithMapping]). The first pass seeds
// the table and treats duplicate names as an input error; the later passes
// are additive and never replace an entry captured earlier.
//
// # Matching
//
// [Function.Match] scores two same-named functions by strict positional byte
// equality, yielding a reproducible percentage suited to progress tracking.
// [Executable.GenerateStats] applies it across two builds and aggregates a
// global score in which functions missing from the reimplementation count as
// zero.
//
// # Disassembly
//
// [Function.Disassemble] renders a function as one instruction per line
// using the golang.org/x/arch x86 decoder, optionally rebasing the listing
// to address 0 and resolving direct relative call targets back to function
// names.
//
// # Entry point scanning
//
// [ScanEntryPoints] discovers candidate function starts in binaries that
// ship without symbols, combining prologue pattern detection with direct
// call target analysis, to help author a mapping file.
package satsuki
