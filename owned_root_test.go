package cyaml_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tlsa/cyaml-go"
	"github.com/tlsa/cyaml-go/internal/alloctest"
)

// ownedAddressSchema's top-level descriptor itself carries FlagOwned,
// matching spec.md §3's "Target root — either caller-provided storage or a
// single heap record allocated by the loader when the top-level descriptor
// is owned."
func ownedAddressSchema() *cyaml.Descriptor {
	return &cyaml.Descriptor{
		Kind:  cyaml.KindMapping,
		Flags: cyaml.FlagOwned,
		Fields: []cyaml.Field{
			{Key: "city", GoName: "City", Desc: &cyaml.Descriptor{Kind: cyaml.KindStringInline, Width: 32, MaxLen: 31}},
		},
	}
}

// spec.md §8 scenario S5: an empty document against an owned top-level
// schema loads successfully with the root left null and zero allocations.
func TestLoadDataEmptyDocumentOwnedRootStaysNil(t *testing.T) {
	schema := ownedAddressSchema()
	alloc := alloctest.New()
	cfg := &cyaml.Config{MemFn: alloc}

	var root *address
	require.NoError(t, cyaml.LoadData([]byte(""), schema, &root, cfg))
	require.Nil(t, root)
	require.Equal(t, 0, alloc.Allocs())
}

// A populated document against an owned top-level schema allocates the
// record and hands it back through *root.
func TestLoadDataPopulatedDocumentAllocatesOwnedRoot(t *testing.T) {
	schema := ownedAddressSchema()
	alloc := alloctest.New()
	cfg := &cyaml.Config{MemFn: alloc}

	var root *address
	require.NoError(t, cyaml.LoadData([]byte("city: Paris\n"), schema, &root, cfg))
	require.NotNil(t, root)
	require.Equal(t, "Paris", root.City)
	require.Greater(t, alloc.Allocs(), 0)

	require.NoError(t, cyaml.Free(schema, &root, cfg))
	require.Equal(t, 0, alloc.Outstanding())
}

// Round-tripping an owned top-level root through SaveData: a nil root
// saves as a bare null document, the save-side counterpart of S5, and a
// populated root saves and reloads back to an equivalent value.
func TestOwnedRootRoundTrip(t *testing.T) {
	schema := ownedAddressSchema()

	var nilRoot *address
	out, err := cyaml.SaveData(schema, &nilRoot, nil)
	require.NoError(t, err)
	require.Equal(t, "---\n~\n...\n", string(out))

	var reloaded *address
	require.NoError(t, cyaml.LoadData(out, schema, &reloaded, nil))
	require.Nil(t, reloaded)

	populated := &address{City: "Oslo"}
	out, err = cyaml.SaveData(schema, &populated, nil)
	require.NoError(t, err)
	require.Contains(t, string(out), "city: Oslo")

	var reloadedPopulated *address
	require.NoError(t, cyaml.LoadData(out, schema, &reloadedPopulated, nil))
	require.NotNil(t, reloadedPopulated)
	require.Equal(t, "Oslo", reloadedPopulated.City)
}

// A non-owned top-level schema still requires a plain *T root, and rejects
// a **T the way it always has.
func TestLoadDataNonOwnedRootRejectsDoublePointer(t *testing.T) {
	schema := personSchema()
	var p *person
	err := cyaml.LoadData([]byte("name: x\n"), schema, &p, nil)
	require.Error(t, err)
}
