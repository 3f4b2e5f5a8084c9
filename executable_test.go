package satsuki_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happyhavoc/satsuki"
	"github.com/happyhavoc/satsuki/objfile"
	"github.com/happyhavoc/satsuki/pdbfile"
)

// testObject builds an in-memory object with an 8-byte code section at
// 0x1000 and two sized code symbols covering its halves.
func testObject() *objfile.File {
	return &objfile.File{
		Code: &objfile.Section{
			Base: 0x1000,
			Data: []byte{0x55, 0x8b, 0xec, 0xc3, 0x55, 0x8b, 0xec, 0xc3},
		},
		Symbols: []objfile.Symbol{
			{Name: "first", Address: 0x1000, Size: 4, Code: true},
			{Name: "second", Address: 0x1004, Size: 4, Code: true},
		},
	}
}

func TestFromObject(t *testing.T) {
	exe, err := satsuki.FromObject(testObject())
	require.NoError(t, err)

	assert.Equal(t, 2, exe.FunctionsCount())

	first := exe.Function("first")
	require.NotNil(t, first)
	assert.Equal(t, uint64(0x1000), first.Address)
	assert.Equal(t, []byte{0x55, 0x8b, 0xec, 0xc3}, first.Data)

	assert.Nil(t, exe.Function("missing"))
}

func TestFromObjectSkipsZeroSizeAndNonCode(t *testing.T) {
	obj := testObject()
	obj.Symbols = append(obj.Symbols,
		objfile.Symbol{Name: "zerosize", Address: 0x1000, Size: 0, Code: true},
		objfile.Symbol{Name: "dataSym", Address: 0x1000, Size: 4, Code: false},
	)

	exe, err := satsuki.FromObject(obj)
	require.NoError(t, err)

	assert.Equal(t, 2, exe.FunctionsCount())
	assert.Nil(t, exe.Function("zerosize"))
	assert.Nil(t, exe.Function("dataSym"))
}

func TestFromObjectWithoutCodeSection(t *testing.T) {
	obj := testObject()
	obj.Code = nil

	exe, err := satsuki.FromObject(obj)
	require.NoError(t, err)
	assert.Equal(t, 0, exe.FunctionsCount())
}

func TestFromObjectDuplicateSymbolIsFatal(t *testing.T) {
	obj := testObject()
	obj.Symbols = append(obj.Symbols, objfile.Symbol{Name: "first", Address: 0x1004, Size: 4, Code: true})

	_, err := satsuki.FromObject(obj)
	var conflict *satsuki.NameConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "first", conflict.Name)
}

func TestFromObjectOutOfBounds(t *testing.T) {
	tests := []struct {
		name string
		sym  objfile.Symbol
	}{
		{
			name: "before section base",
			sym:  objfile.Symbol{Name: "early", Address: 0xfff, Size: 4, Code: true},
		},
		{
			name: "past section end",
			sym:  objfile.Symbol{Name: "late", Address: 0x1006, Size: 4, Code: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := testObject()
			obj.Symbols = []objfile.Symbol{tt.sym}

			_, err := satsuki.FromObject(obj)
			var oob *satsuki.BoundsError
			require.ErrorAs(t, err, &oob)
			assert.Equal(t, tt.sym.Name, oob.Name)
		})
	}
}

func TestAddFunctionConflict(t *testing.T) {
	exe := satsuki.NewExecutable()
	require.NoError(t, exe.AddFunction("f", 0x1000, []byte{0x90}))

	err := exe.AddFunction("f", 0x2000, []byte{0xc3})
	var conflict *satsuki.NameConflictError
	require.ErrorAs(t, err, &conflict)

	// The earlier registration stays untouched.
	assert.Equal(t, uint64(0x1000), exe.Function("f").Address)
	assert.Equal(t, 1, exe.FunctionsCount())
}

func TestAddDebugProceduresIsAdditive(t *testing.T) {
	exe, err := satsuki.FromObject(testObject())
	require.NoError(t, err)

	pdb := &pdbfile.File{
		Modules: []pdbfile.Module{
			{
				Name: "main.obj",
				Procedures: []pdbfile.Procedure{
					// Conflicts with the primary pass over a different
					// range; the primary entry must win.
					{Name: "first", Offset: 2, Length: 2},
					{Name: "third", Offset: 6, Length: 2},
					{Name: "empty", Offset: 0, Length: 0},
				},
			},
		},
	}

	require.NoError(t, exe.AddDebugProcedures(testObject(), pdb))

	assert.Equal(t, 3, exe.FunctionsCount())
	assert.Equal(t, uint64(0x1000), exe.Function("first").Address)
	assert.Equal(t, []byte{0x55, 0x8b, 0xec, 0xc3}, exe.Function("first").Data)

	third := exe.Function("third")
	require.NotNil(t, third)
	assert.Equal(t, uint64(0x1006), third.Address)
	assert.Equal(t, []byte{0xec, 0xc3}, third.Data)

	assert.Nil(t, exe.Function("empty"))
}

func TestAddPublicSymbols(t *testing.T) {
	exe, err := satsuki.FromObject(testObject())
	require.NoError(t, err)

	mapping := satsuki.Mapping{
		Functions: []satsuki.MappingFunction{
			{Name: "pub_fn", Address: 0x1004, Size: 2},
		},
	}
	pdb := &pdbfile.File{
		Publics: []pdbfile.PublicSymbol{
			{Name: "pub_fn", Offset: 4, Function: true},
			{Name: "unsized", Offset: 6, Function: true},
			{Name: "pub_data", Offset: 0, Function: false},
		},
	}

	require.NoError(t, exe.AddPublicSymbols(testObject(), mapping, pdb))

	pub := exe.Function("pub_fn")
	require.NotNil(t, pub)
	assert.Equal(t, uint64(0x1004), pub.Address)
	assert.Equal(t, []byte{0x55, 0x8b}, pub.Data)

	// Publics without a mapped size or without the function flag are skipped.
	assert.Nil(t, exe.Function("unsized"))
	assert.Nil(t, exe.Function("pub_data"))
}

func TestFromObjectWithPDB(t *testing.T) {
	mapping := satsuki.Mapping{
		Functions: []satsuki.MappingFunction{
			{Name: "pub_fn", Address: 0x1006, Size: 2},
		},
	}
	pdb := &pdbfile.File{
		Modules: []pdbfile.Module{
			{Name: "main.obj", Procedures: []pdbfile.Procedure{{Name: "proc", Offset: 4, Length: 2}}},
		},
		Publics: []pdbfile.PublicSymbol{
			{Name: "pub_fn", Offset: 6, Function: true},
		},
	}

	exe, err := satsuki.FromObjectWithPDB(testObject(), mapping, pdb)
	require.NoError(t, err)

	// Primary symbols, the debug procedure, and the sized public.
	assert.Equal(t, 4, exe.FunctionsCount())
	require.NotNil(t, exe.Function("proc"))
	assert.Equal(t, uint64(0x1004), exe.Function("proc").Address)
	require.NotNil(t, exe.Function("pub_fn"))

	// The intermediate path stops before the publics pass.
	partial, err := satsuki.FromObjectWithDebugInfo(testObject(), pdb)
	require.NoError(t, err)
	assert.Equal(t, 3, partial.FunctionsCount())
	assert.Nil(t, partial.Function("pub_fn"))
}

func TestFromObjectWithMapping(t *testing.T) {
	mapping := satsuki.Mapping{
		Functions: []satsuki.MappingFunction{
			{Name: "first", Address: 0x1004, Size: 2}, // collides; primary wins
			{Name: "mapped", Address: 0x1004, Size: 4},
			{Address: 0x1000, Size: 4}, // inert: no name
			{Name: "empty", Address: 0x1000, Size: 0},
		},
	}

	exe, err := satsuki.FromObjectWithMapping(testObject(), mapping)
	require.NoError(t, err)

	assert.Equal(t, 3, exe.FunctionsCount())
	assert.Equal(t, uint64(0x1000), exe.Function("first").Address)

	mapped := exe.Function("mapped")
	require.NotNil(t, mapped)
	assert.Equal(t, []byte{0x55, 0x8b, 0xec, 0xc3}, mapped.Data)

	assert.Nil(t, exe.Function("empty"))
}

func TestFromObjectWithMappingOutOfBounds(t *testing.T) {
	mapping := satsuki.Mapping{
		Functions: []satsuki.MappingFunction{
			{Name: "bad", Address: 0x1004, Size: 64},
		},
	}

	_, err := satsuki.FromObjectWithMapping(testObject(), mapping)
	var oob *satsuki.BoundsError
	require.ErrorAs(t, err, &oob)
	assert.Equal(t, "bad", oob.Name)
}

func TestFunctionByAddress(t *testing.T) {
	exe, err := satsuki.FromObject(testObject())
	require.NoError(t, err)

	fn := exe.FunctionByAddress(0x1004)
	require.NotNil(t, fn)
	assert.Equal(t, "second", fn.Name)

	assert.Nil(t, exe.FunctionByAddress(0x1001))
}

func TestGenerateStats(t *testing.T) {
	original := satsuki.NewExecutable()
	require.NoError(t, original.AddFunction("a", 0x1000, []byte{0x55, 0xc3}))
	require.NoError(t, original.AddFunction("b", 0x2000, []byte{0x8b, 0xec}))
	require.NoError(t, original.AddFunction("c", 0x3000, []byte{0x90, 0x90}))

	reimpl := satsuki.NewExecutable()
	require.NoError(t, reimpl.AddFunction("a", 0x1000, []byte{0x55, 0xc3}))
	require.NoError(t, reimpl.AddFunction("b", 0x2000, []byte{0x8b, 0xec}))

	stats, err := original.GenerateStats(reimpl)
	require.NoError(t, err)

	require.Len(t, stats, 3)
	require.NotNil(t, stats["a"])
	assert.Equal(t, 100.0, *stats["a"])
	require.NotNil(t, stats["b"])
	assert.Equal(t, 100.0, *stats["b"])
	assert.Nil(t, stats["c"])

	// The missing function counts as zero toward the aggregate: 200/3, not
	// 200/2.
	assert.InDelta(t, 200.0/3.0, stats.Global(), 1e-9)
}

func TestGenerateStatsEmpty(t *testing.T) {
	stats, err := satsuki.NewExecutable().GenerateStats(satsuki.NewExecutable())
	require.NoError(t, err)
	assert.Empty(t, stats)
	assert.Equal(t, 0.0, stats.Global())
}
