package cyaml_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tlsa/cyaml-go"
)

// spec.md §8 property 6: every distinct Error code has a distinct,
// non-empty string.
func TestErrorStringsAreDistinctAndNonEmpty(t *testing.T) {
	seen := map[string]cyaml.Error{}
	for code := cyaml.Ok; code <= cyaml.ErrInternalError; code++ {
		s := code.Error()
		require.NotEmpty(t, s, "code %d", code)
		if other, ok := seen[s]; ok {
			t.Fatalf("codes %d and %d share the string %q", other, code, s)
		}
		seen[s] = code
	}
}

func TestErrorStringOutOfRange(t *testing.T) {
	require.Contains(t, cyaml.Error(9999).Error(), "unknown error code")
}

func TestKindOfUnwrapsDetailedError(t *testing.T) {
	var root struct{ X int }
	err := cyaml.LoadData([]byte("x: notanumber\n"), &cyaml.Descriptor{
		Kind: cyaml.KindMapping,
		Fields: []cyaml.Field{
			{Key: "x", GoName: "X", Desc: &cyaml.Descriptor{Kind: cyaml.KindInt, Width: 4}},
		},
	}, &root, nil)
	require.Error(t, err)
	require.Equal(t, cyaml.ErrInvalidScalar, cyaml.KindOf(err))
	require.True(t, errors.Is(err, cyaml.ErrInvalidScalar))
}

func TestKindOfNilAndForeignError(t *testing.T) {
	require.Equal(t, cyaml.Ok, cyaml.KindOf(nil))
	require.Equal(t, cyaml.ErrInternalError, cyaml.KindOf(errors.New("not ours")))
}
