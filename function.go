package satsuki

import "fmt"

// Function is an extracted function: the exact bytes occupying
// [Address, Address+len(Data)) in the code section. Functions are immutable
// once registered in an Executable.
type Function struct {
	Name    string
	Address uint64
	Data    []byte
}

// Match computes the byte similarity between f and other as a percentage.
//
// The comparison is strictly positional: byte i of f is compared against
// byte i of other, and positions past the end of other never match. An
// inserted or deleted byte therefore shifts everything after it and
// collapses the score, which is the point: the measured signal is byte-exact
// code generation, not semantic similarity.
//
// A score of exactly 100 is only reported when both functions have the same
// length; a shorter function whose bytes all match a longer one is a prefix,
// not a perfect match, and is reported as an error.
func (f *Function) Match(other *Function) (float64, error) {
	n := len(f.Data)
	if n == 0 {
		return 0, &ConsistencyError{Reason: fmt.Sprintf("function %q has no bytes", f.Name)}
	}

	matching := 0
	for i, b := range f.Data {
		if i < len(other.Data) && other.Data[i] == b {
			matching++
		}
	}

	if matching == n && len(f.Data) != len(other.Data) {
		return 0, &ConsistencyError{
			Reason: fmt.Sprintf("function %q fully matches a prefix of %q but lengths differ (%d vs %d)",
				f.Name, other.Name, len(f.Data), len(other.Data)),
		}
	}

	return float64(matching) / float64(n) * 100.0, nil
}
