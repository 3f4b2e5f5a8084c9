package satsuki

import "fmt"

// NameConflictError reports an attempt to register two functions under the
// same name. The primary symbol pass treats it as fatal; the additive debug
// passes recover it and keep the earlier entry.
type NameConflictError struct {
	Name string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("function name conflict: %q", e.Name)
}

// BoundsError reports function byte-range arithmetic that falls outside the
// code section. It signals a mismatched executable/debug-info/mapping triple
// and is always fatal.
type BoundsError struct {
	Name       string
	Address    uint64
	Size       uint64
	Section    uint64
	SectionLen int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("function %q range [%#x, %#x) is outside the code section [%#x, %#x)",
		e.Name, e.Address, e.Address+e.Size, e.Section, e.Section+uint64(e.SectionLen))
}

// ConsistencyError reports a violated internal invariant, such as a
// zero-length function reaching the matcher.
type ConsistencyError struct {
	Reason string
}

func (e *ConsistencyError) Error() string {
	return "internal consistency violation: " + e.Reason
}
