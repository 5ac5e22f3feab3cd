package dynamic

import (
	"testing"

	"github.com/stcorp/coda-go/types"
)

func TestBitmaskPresentAndCount(t *testing.T) {
	// bitmap 0b1010_0000 over 4 logical elements: present, absent, present, absent.
	base := types.NewNumber(types.NumberInteger, types.ReadUint8, 8)
	static := types.NewArray(base, types.OrderC, types.ConstDimension(4))
	a := NewArray(static, 4, 0, 8)
	a.Bitmask = []byte{0b10100000}

	want := []bool{true, false, true, false}
	for i, w := range want {
		if got := a.BitmaskPresent(int64(i)); got != w {
			t.Errorf("BitmaskPresent(%d) = %v, want %v", i, got, w)
		}
	}

	if c := a.BitmaskCountBefore(0); c != 0 {
		t.Errorf("BitmaskCountBefore(0) = %d, want 0", c)
	}
	if c := a.BitmaskCountBefore(2); c != 1 {
		t.Errorf("BitmaskCountBefore(2) = %d, want 1", c)
	}
	if c := a.BitmaskCountBefore(4); c != 2 {
		t.Errorf("BitmaskCountBefore(4) = %d, want 2", c)
	}
}

func TestRecordFieldAvailability(t *testing.T) {
	sr := types.NewRecord()
	sr.AddField(types.Field{Name: "a", Type: types.NewNumber(types.NumberInteger, types.ReadInt32, 32)})
	sr.AddField(types.Field{Name: "b", Type: types.NewNumber(types.NumberInteger, types.ReadInt32, 32)})

	r := NewRecord(sr)
	if r.Available(0) || r.Available(1) {
		t.Fatal("fresh record should have no fields bound")
	}
	r.SetField(0, NewScalar(sr.Field(0).Type, 0))
	if !r.Available(0) {
		t.Fatal("field 0 should be available after SetField")
	}
	if r.Available(1) {
		t.Fatal("field 1 should remain unavailable")
	}
}
