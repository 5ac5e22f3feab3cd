package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestNumberValidate(t *testing.T) {
	n := NewNumber(NumberInteger, ReadUint8, 4)
	if err := n.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := NewNumber(NumberInteger, ReadUint8, 12)
	if err := bad.Validate(); err == nil {
		t.Fatal("expected validation error for oversized bit_size")
	}
}

func TestRecordFieldLookup(t *testing.T) {
	r := NewRecord()
	if err := r.AddField(Field{Name: "a", RealName: "A_REAL", Type: NewNumber(NumberInteger, ReadInt32, 32)}); err != nil {
		t.Fatalf("AddField: %v", err)
	}
	if err := r.AddField(Field{Name: "b", Type: NewNumber(NumberInteger, ReadInt32, 32)}); err != nil {
		t.Fatalf("AddField: %v", err)
	}
	if err := r.AddField(Field{Name: "a", Type: NewNumber(NumberInteger, ReadInt32, 32)}); err == nil {
		t.Fatal("expected duplicate-name error")
	}

	if idx := r.FieldIndexByName("b"); idx != 1 {
		t.Fatalf("FieldIndexByName(b) = %d, want 1", idx)
	}
	if idx := r.FieldIndexByRealName("A_REAL"); idx != 0 {
		t.Fatalf("FieldIndexByRealName(A_REAL) = %d, want 0", idx)
	}
	if idx := r.FieldIndexByName("missing"); idx != -1 {
		t.Fatalf("FieldIndexByName(missing) = %d, want -1", idx)
	}

	size, ok := r.BitSize()
	if !ok || size != 64 {
		t.Fatalf("BitSize() = (%d, %v), want (64, true)", size, ok)
	}
}

func TestArrayBitSize(t *testing.T) {
	base := NewNumber(NumberInteger, ReadInt32, 32)
	arr := NewArray(base, OrderC, ConstDimension(2), ConstDimension(3))
	n, ok := arr.NumElements()
	if !ok || n != 6 {
		t.Fatalf("NumElements() = (%d, %v), want (6, true)", n, ok)
	}
	size, ok := arr.BitSize()
	if !ok || size != 192 {
		t.Fatalf("BitSize() = (%d, %v), want (192, true)", size, ok)
	}
}

func TestSpecialValidate(t *testing.T) {
	base := NewNumber(NumberReal, ReadFloat64, 64)
	tm := NewTimeType(base, nil)
	if err := tm.Validate(); err == nil {
		t.Fatal("expected error for missing unit expression")
	}

	vsf := NewVSFIntegerType(
		NewNumber(NumberInteger, ReadInt32, 32),
		NewNumber(NumberInteger, ReadInt8, 8),
		"m")
	if err := vsf.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecordDeepEqual(t *testing.T) {
	r1 := NewRecord()
	r1.AddField(Field{Name: "x", Type: NewNumber(NumberInteger, ReadInt8, 8)})
	r2 := NewRecord()
	r2.AddField(Field{Name: "x", Type: NewNumber(NumberInteger, ReadInt8, 8)})

	diff := cmp.Diff(r1, r2, cmpopts.IgnoreUnexported(Record{}))
	if diff != "" {
		t.Fatalf("records differ (-r1 +r2):\n%s", diff)
	}
}
