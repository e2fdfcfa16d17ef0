package cyaml_test

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/tlsa/cyaml-go"
)

type colorPick struct {
	Color int64
}

func colorSchema() *cyaml.Descriptor {
	return &cyaml.Descriptor{
		Kind: cyaml.KindMapping,
		Fields: []cyaml.Field{
			{Key: "color", GoName: "Color", Desc: &cyaml.Descriptor{
				Kind:  cyaml.KindEnum,
				Width: 4,
				Values: []cyaml.EnumValue{
					{Name: "red", Value: 1},
					{Name: "green", Value: 2},
					{Name: "blue", Value: 4},
				},
			}},
		},
	}
}

func TestSaveDataEnumByName(t *testing.T) {
	out, err := cyaml.SaveData(colorSchema(), &colorPick{Color: 2}, nil)
	require.NoError(t, err)
	require.Contains(t, string(out), "color: green")
}

func TestSaveDataEnumFallsBackToIntegerWhenUnnamed(t *testing.T) {
	out, err := cyaml.SaveData(colorSchema(), &colorPick{Color: 9}, nil)
	require.NoError(t, err)
	require.Contains(t, string(out), "color: 9")
}

func TestSaveDataRejectsNonMappingRoot(t *testing.T) {
	schema := &cyaml.Descriptor{Kind: cyaml.KindInt, Width: 4}
	var x int
	require.Panics(t, func() {
		_, _ = cyaml.SaveData(schema, &x, &cyaml.Config{Debug: true})
	})
}

func TestSaveDataNonPointerRootReturnsError(t *testing.T) {
	_, err := cyaml.SaveData(colorSchema(), colorPick{}, nil)
	require.Equal(t, cyaml.ErrDataTargetNonNull, cyaml.KindOf(err))
}

func TestSaveFileAndLoadFileRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	schema := personSchema()
	data := []byte("name: Ada\nage: 30\nmarried: false\naddress:\n  city: London\ntags: [a, b]\n")
	var p person
	require.NoError(t, cyaml.LoadData(data, schema, &p, nil))

	require.NoError(t, cyaml.SaveFile(fs, "/out.yaml", schema, &p, nil))

	var p2 person
	require.NoError(t, cyaml.LoadFile(fs, "/out.yaml", schema, &p2, nil))
	require.Equal(t, p.Name, p2.Name)
	require.Equal(t, p.Tags, p2.Tags)
}

func TestLoadFileMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	var p person
	err := cyaml.LoadFile(fs, "/missing.yaml", personSchema(), &p, nil)
	require.Equal(t, cyaml.ErrYAMLError, cyaml.KindOf(err))
}

// spec.md §4.7: an absent optional owned mapping is omitted entirely,
// never emitted as a null key.
func TestAbsentOptionalOwnedMappingIsOmitted(t *testing.T) {
	var p person
	p.Name = "Zero"
	out, err := cyaml.SaveData(personSchema(), &p, nil)
	require.NoError(t, err)
	require.False(t, strings.Contains(string(out), "address"))
}

// A required owned mapping left nil saves as an explicit null scalar.
func TestRequiredOwnedMappingNilSavesAsNull(t *testing.T) {
	schema := &cyaml.Descriptor{
		Kind: cyaml.KindMapping,
		Fields: []cyaml.Field{
			{Key: "address", GoName: "Address", Desc: &cyaml.Descriptor{
				Kind:  cyaml.KindMapping,
				Flags: cyaml.FlagOwned,
				Fields: []cyaml.Field{
					{Key: "city", GoName: "City", Desc: &cyaml.Descriptor{Kind: cyaml.KindStringInline, Width: 32, MaxLen: 31}},
				},
			}},
		},
	}
	var p struct{ Address *address }
	out, err := cyaml.SaveData(schema, &p, nil)
	require.NoError(t, err)
	require.Contains(t, string(out), "address: ~")

	// spec.md Invariant 5 / §8 property 1: reloading that exact byte
	// stream must round-trip back to a nil Address, not ErrUnexpectedEvent.
	var p2 struct{ Address *address }
	require.NoError(t, cyaml.LoadData(out, schema, &p2, nil))
	require.Nil(t, p2.Address)
}
