package cyaml_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/tlsa/cyaml-go"
	"github.com/tlsa/cyaml-go/internal/alloctest"
)

type address struct {
	City string
}

type person struct {
	Name    string
	Age     int
	Married bool
	Address *address
	Tags    []string
	TagsN   int
}

func personSchema() *cyaml.Descriptor {
	return &cyaml.Descriptor{
		Kind: cyaml.KindMapping,
		Fields: []cyaml.Field{
			{Key: "name", GoName: "Name", Desc: &cyaml.Descriptor{Kind: cyaml.KindStringInline, Width: 32, MaxLen: 31}},
			{Key: "age", GoName: "Age", Desc: &cyaml.Descriptor{Kind: cyaml.KindInt, Width: 4}},
			{Key: "married", GoName: "Married", Desc: &cyaml.Descriptor{Kind: cyaml.KindBool, Width: 1}},
			{Key: "address", GoName: "Address", Desc: &cyaml.Descriptor{
				Kind:  cyaml.KindMapping,
				Flags: cyaml.FlagOwned | cyaml.FlagOptional,
				Fields: []cyaml.Field{
					{Key: "city", GoName: "City", Desc: &cyaml.Descriptor{Kind: cyaml.KindStringInline, Width: 32, MaxLen: 31}},
				},
			}},
			{Key: "tags", GoName: "Tags", Desc: &cyaml.Descriptor{
				Kind:       cyaml.KindSequence,
				Element:    &cyaml.Descriptor{Kind: cyaml.KindStringInline, Width: 16, MaxLen: 15},
				MaxCount:   4,
				CountWidth: 4,
				CountField: "TagsN",
				Variant:    cyaml.SeqInline,
			}},
		},
	}
}

func TestLoadDataBasicMapping(t *testing.T) {
	schema := personSchema()
	data := []byte("name: Ada\nage: 30\nmarried: false\naddress:\n  city: London\ntags: [a, b]\n")
	var p person
	err := cyaml.LoadData(data, schema, &p, nil)
	require.NoError(t, err)
	require.Equal(t, "Ada", p.Name)
	require.Equal(t, 30, p.Age)
	require.False(t, p.Married)
	require.NotNil(t, p.Address)
	require.Equal(t, "London", p.Address.City)
	require.Equal(t, []string{"a", "b"}, p.Tags)
	require.Equal(t, 2, p.TagsN)
}

func TestLoadDataOptionalFieldAbsent(t *testing.T) {
	schema := personSchema()
	data := []byte("name: Bo\nage: 5\nmarried: true\ntags: []\n")
	var p person
	err := cyaml.LoadData(data, schema, &p, nil)
	require.NoError(t, err)
	require.Nil(t, p.Address)
}

func TestLoadDataMissingRequiredField(t *testing.T) {
	schema := personSchema()
	data := []byte("name: Bo\nage: 5\ntags: []\n")
	var p person
	err := cyaml.LoadData(data, schema, &p, nil)
	require.Equal(t, cyaml.ErrMappingFieldMissing, cyaml.KindOf(err))
}

func TestLoadDataUnknownKeyRejected(t *testing.T) {
	schema := personSchema()
	data := []byte("name: Bo\nage: 5\nmarried: true\ntags: []\nnickname: Bobby\n")
	var p person
	err := cyaml.LoadData(data, schema, &p, nil)
	require.Equal(t, cyaml.ErrMappingKeyUnknown, cyaml.KindOf(err))
}

func TestLoadDataUnknownKeyIgnoredWhenConfigured(t *testing.T) {
	schema := personSchema()
	data := []byte("name: Bo\nage: 5\nmarried: true\ntags: []\nnickname: Bobby\n")
	var p person
	err := cyaml.LoadData(data, schema, &p, &cyaml.Config{IgnoreUnknownKeys: true})
	require.NoError(t, err)
}

func TestLoadDataSequenceTooLong(t *testing.T) {
	schema := personSchema()
	data := []byte("name: Bo\nage: 5\nmarried: true\ntags: [a, b, c, d, e]\n")
	var p person
	err := cyaml.LoadData(data, schema, &p, nil)
	require.Equal(t, cyaml.ErrSequenceTooLong, cyaml.KindOf(err))
}

// spec.md §8 property 1: load then save then reload produces an
// equivalent data graph.
func TestRoundTrip(t *testing.T) {
	schema := personSchema()
	data := []byte("name: Ada\nage: 30\nmarried: false\naddress:\n  city: London\ntags: [a, b]\n")
	var p person
	require.NoError(t, cyaml.LoadData(data, schema, &p, nil))

	out, err := cyaml.SaveData(schema, &p, nil)
	require.NoError(t, err)

	var p2 person
	require.NoError(t, cyaml.LoadData(out, schema, &p2, nil))

	if diff := cmp.Diff(p.Name, p2.Name); diff != "" {
		t.Errorf("Name mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, p.Age, p2.Age)
	require.Equal(t, p.Married, p2.Married)
	require.Equal(t, p.Address.City, p2.Address.City)
	require.Equal(t, p.Tags, p2.Tags)
	require.Equal(t, p.TagsN, p2.TagsN)
}

// spec.md §8 property 2: Free is safe to call once on a fully-populated
// root and leaves no outstanding allocations.
func TestFreeReleasesEveryOwnedAllocation(t *testing.T) {
	schema := personSchema()
	alloc := alloctest.New()
	cfg := &cyaml.Config{MemFn: alloc}
	data := []byte("name: Ada\nage: 30\nmarried: false\naddress:\n  city: London\ntags: [a, b]\n")
	var p person
	require.NoError(t, cyaml.LoadData(data, schema, &p, cfg))
	require.Greater(t, alloc.Allocs(), 0)
	require.Greater(t, alloc.Outstanding(), 0)

	require.NoError(t, cyaml.Free(schema, &p, cfg))
	require.Equal(t, 0, alloc.Outstanding())
}

// spec.md §8 property 3: a load that fails partway through leaves no
// outstanding allocations once LoadData returns.
func TestLoadDataRollsBackOnFailure(t *testing.T) {
	schema := personSchema()
	alloc := alloctest.New()
	cfg := &cyaml.Config{MemFn: alloc}
	// "address" allocates, then "tags" overflows max_count.
	data := []byte("name: Ada\nage: 30\nmarried: false\naddress:\n  city: London\ntags: [a, b, c, d, e]\n")
	var p person
	err := cyaml.LoadData(data, schema, &p, cfg)
	require.Error(t, err)
	require.Equal(t, 0, alloc.Outstanding())
	require.Greater(t, alloc.Allocs(), 0)
}

func TestLoadDataRejectsNonPointerRoot(t *testing.T) {
	schema := personSchema()
	err := cyaml.LoadData([]byte("name: x\n"), schema, person{}, nil)
	require.Equal(t, cyaml.ErrDataTargetNonNull, cyaml.KindOf(err))
}

func TestLoadDataRejectsInvalidSchemaBeforeTouchingAllocator(t *testing.T) {
	alloc := alloctest.New()
	bad := &cyaml.Descriptor{Kind: cyaml.KindEnum, Width: 3}
	var x int
	err := cyaml.LoadData([]byte("x: 1\n"), bad, &x, &cyaml.Config{MemFn: alloc})
	require.Equal(t, cyaml.ErrSchemaInvalid, cyaml.KindOf(err))
	require.Equal(t, 0, alloc.Allocs())
}
