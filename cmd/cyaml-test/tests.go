package main

import (
	"fmt"
	"reflect"

	"github.com/tlsa/cyaml-go"
	"github.com/tlsa/cyaml-go/internal/alloctest"
)

type propertyTest struct {
	name string
	run  func(base cyaml.Config) error
}

var registry = []propertyTest{
	{"bool-variants", testBoolVariants},
	{"flags-roundtrip", testFlagsRoundtrip},
	{"rollback-completeness", testRollbackCompleteness},
	{"schema-validate-guard", testSchemaValidateGuard},
	{"error-string-uniqueness", testErrorStringUniqueness},
}

// testBoolVariants is spec.md scenario S2: every accepted boolean spelling,
// loaded into a bounded sequence of bool.
func testBoolVariants(base cyaml.Config) error {
	type root struct {
		Bools      []bool
		BoolsCount int
	}
	schema := &cyaml.Descriptor{
		Kind: cyaml.KindMapping,
		Fields: []cyaml.Field{
			{Key: "bools", GoName: "Bools", Desc: &cyaml.Descriptor{
				Kind:       cyaml.KindSequence,
				Element:    &cyaml.Descriptor{Kind: cyaml.KindBool, Width: 1},
				MinCount:   0,
				MaxCount:   8,
				CountWidth: 1,
				CountField: "BoolsCount",
				Variant:    cyaml.SeqInline,
			}},
		},
	}
	data := []byte("bools: [true, false, yes, no, enable, disable, 1, 0]\n")
	cfg := base
	var r root
	if err := cyaml.LoadData(data, schema, &r, &cfg); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	want := []bool{true, false, true, false, true, false, true, false}
	if !reflect.DeepEqual(r.Bools, want) {
		return fmt.Errorf("got %v, want %v", r.Bools, want)
	}
	if r.BoolsCount != 8 {
		return fmt.Errorf("BoolsCount = %d, want 8", r.BoolsCount)
	}
	return nil
}

// testFlagsRoundtrip is spec.md scenario S3: a flags value with one bit
// outside the declared name table, loaded then saved then reloaded.
func testFlagsRoundtrip(base cyaml.Config) error {
	type root struct {
		Bits uint32
	}
	schema := &cyaml.Descriptor{
		Kind: cyaml.KindMapping,
		Fields: []cyaml.Field{
			{Key: "bits", GoName: "Bits", Desc: &cyaml.Descriptor{
				Kind:  cyaml.KindFlags,
				Width: 4,
				Bits: []cyaml.FlagValue{
					{Name: "first", Bit: 1 << 0},
					{Name: "second", Bit: 1 << 1},
					{Name: "third", Bit: 1 << 2},
					{Name: "fourth", Bit: 1 << 3},
					{Name: "fifth", Bit: 1 << 4},
					{Name: "sixth", Bit: 1 << 5},
				},
			}},
		},
	}
	cfg := &base
	data := []byte("bits: [second, fifth, 1024]\n")
	var r root
	if err := cyaml.LoadData(data, schema, &r, cfg); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if r.Bits != 1042 {
		return fmt.Errorf("Bits = %d, want 1042", r.Bits)
	}
	out, err := cyaml.SaveData(schema, &r, cfg)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	var r2 root
	if err := cyaml.LoadData(out, schema, &r2, cfg); err != nil {
		return fmt.Errorf("reload of saved output: %w\nsaved:\n%s", err, out)
	}
	if r2.Bits != r.Bits {
		return fmt.Errorf("round-trip mismatch: got %d, want %d", r2.Bits, r.Bits)
	}
	return nil
}

// testRollbackCompleteness is spec.md §8 property 3: a load that fails
// partway through, after at least one owned allocation, must leave the
// counting allocator with zero outstanding blocks once LoadData returns.
func testRollbackCompleteness(base cyaml.Config) error {
	type inner struct {
		Name string
	}
	type root struct {
		First  *inner
		Second *inner
	}
	schema := &cyaml.Descriptor{
		Kind: cyaml.KindMapping,
		Fields: []cyaml.Field{
			{Key: "first", GoName: "First", Desc: &cyaml.Descriptor{
				Kind:  cyaml.KindMapping,
				Flags: cyaml.FlagOwned,
				Fields: []cyaml.Field{
					{Key: "name", GoName: "Name", Desc: &cyaml.Descriptor{Kind: cyaml.KindStringInline, Width: 16, MaxLen: 15}},
				},
			}},
			{Key: "second", GoName: "Second", Desc: &cyaml.Descriptor{
				Kind:  cyaml.KindMapping,
				Flags: cyaml.FlagOwned,
				Fields: []cyaml.Field{
					{Key: "name", GoName: "Name", Desc: &cyaml.Descriptor{Kind: cyaml.KindStringInline, Width: 4, MaxLen: 3}},
				},
			}},
		},
	}
	// "second.name" is 7 bytes, which exceeds its capacity-1 of 3: the
	// load must fail after "first" has already been allocated.
	data := []byte("first:\n  name: ok\nsecond:\n  name: toolong\n")
	alloc := alloctest.New()
	cfg := base
	cfg.MemFn = alloc
	var r root
	err := cyaml.LoadData(data, schema, &r, &cfg)
	if err == nil {
		return fmt.Errorf("expected a load failure, got none")
	}
	if alloc.Outstanding() != 0 {
		return fmt.Errorf("rollback left %d allocation(s) outstanding", alloc.Outstanding())
	}
	if alloc.Allocs() == 0 {
		return fmt.Errorf("test fixture never exercised an allocation; it proves nothing")
	}
	return nil
}

// testSchemaValidateGuard is spec.md §8 property 5: Validate rejects a
// malformed schema before any data is touched.
func testSchemaValidateGuard(base cyaml.Config) error {
	bad := &cyaml.Descriptor{Kind: cyaml.KindEnum, Width: 3}
	err := cyaml.Validate(bad)
	if err == nil {
		return fmt.Errorf("expected ErrSchemaInvalid for an enum of width 3, got nil")
	}
	if cyaml.KindOf(err) != cyaml.ErrSchemaInvalid {
		return fmt.Errorf("got error kind %v, want ErrSchemaInvalid", cyaml.KindOf(err))
	}
	return nil
}

// testErrorStringUniqueness is spec.md §8 property 6.
func testErrorStringUniqueness(base cyaml.Config) error {
	seen := map[string]cyaml.Error{}
	for code := cyaml.Ok; code <= cyaml.ErrInternalError; code++ {
		s := code.Error()
		if s == "" {
			return fmt.Errorf("error code %d has an empty string", code)
		}
		if other, ok := seen[s]; ok {
			return fmt.Errorf("error codes %d and %d share the string %q", other, code, s)
		}
		seen[s] = code
	}
	return nil
}
