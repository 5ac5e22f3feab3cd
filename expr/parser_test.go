package expr

import "testing"

func evalStr(t *testing.T, src string) Value {
	t.Helper()
	n, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	v, err := n.Eval(NewContext())
	if err != nil {
		t.Fatalf("Eval(%q): %v", src, err)
	}
	return v
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		src  string
		want int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 % 3", 1},
		{"-5 + 2", -3},
	}
	for _, c := range cases {
		v := evalStr(t, c.src)
		i, err := v.AsInt()
		if err != nil {
			t.Fatalf("%s: %v", c.src, err)
		}
		if i != c.want {
			t.Errorf("%s = %d, want %d", c.src, i, c.want)
		}
	}
}

func TestComparisonAndLogical(t *testing.T) {
	cases := []struct {
		src  string
		want bool
	}{
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 == 3 && 4 != 5", true},
		{"1 > 2 || 2 > 1", true},
		{"!(1 == 1)", false},
	}
	for _, c := range cases {
		v := evalStr(t, c.src)
		b, err := v.AsBool()
		if err != nil {
			t.Fatalf("%s: %v", c.src, err)
		}
		if b != c.want {
			t.Errorf("%s = %v, want %v", c.src, b, c.want)
		}
	}
}

func TestDivisionByZero(t *testing.T) {
	n, err := Parse("1 / 0")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = n.Eval(NewContext())
	if err == nil {
		t.Fatal("expected division-by-zero error")
	}
}

func TestConstantFolding(t *testing.T) {
	v, isConst, err := IsConstantExpression("2 + 3 * 4")
	if err != nil {
		t.Fatalf("IsConstantExpression: %v", err)
	}
	if !isConst {
		t.Fatal("expected constant expression")
	}
	i, _ := v.AsInt()
	if i != 14 {
		t.Fatalf("got %d, want 14", i)
	}

	_, isConst, err = IsConstantExpression("file_size()")
	if err != nil {
		t.Fatalf("IsConstantExpression: %v", err)
	}
	if isConst {
		t.Fatal("file_size() should not be constant")
	}
}

func TestRegexAndSubstr(t *testing.T) {
	v := evalStr(t, `regex("^abc", "abcdef")`)
	b, _ := v.AsBool()
	if !b {
		t.Fatal("expected regex match")
	}

	v = evalStr(t, `substr(1, 3, "hello")`)
	s, _ := v.AsString()
	if string(s) != "ell" {
		t.Fatalf("got %q, want %q", s, "ell")
	}
}

// stubCursor is a minimal Cursor used to test path navigation without
// depending on the rest of the module.
type stubCursor struct {
	path  []string
	value Value
}

func (c *stubCursor) Clone() Cursor { cp := *c; return &cp }
func (c *stubCursor) GotoRecordFieldByName(name string) error {
	c.path = append(c.path, name)
	return nil
}
func (c *stubCursor) GotoArrayElementByIndex(i int64) error { return nil }
func (c *stubCursor) GotoParent() error {
	if len(c.path) > 0 {
		c.path = c.path[:len(c.path)-1]
	}
	return nil
}
func (c *stubCursor) GotoRoot() error           { c.path = nil; return nil }
func (c *stubCursor) GotoAttributes() error     { return nil }
func (c *stubCursor) ReadValue() (Value, error) { return c.value, nil }
func (c *stubCursor) FileSize() (int64, error)  { return 1234, nil }
func (c *stubCursor) FileName() (string, error) { return "test.dat", nil }

func TestPathNavigationAndFileBuiltins(t *testing.T) {
	ctx := NewContext()
	ctx.Cursor = &stubCursor{value: IntValue(42)}

	n, err := Parse("./field")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, err := n.Eval(ctx)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	i, _ := v.AsInt()
	if i != 42 {
		t.Fatalf("got %d, want 42", i)
	}

	n, err = Parse("file_size()")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, err = n.Eval(ctx)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	sz, _ := v.AsInt()
	if sz != 1234 {
		t.Fatalf("got %d, want 1234", sz)
	}
}
