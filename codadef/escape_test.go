package codadef

import "testing"

func TestDecodeEscapedString(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`hello`, "hello"},
		{`a\nb`, "a\nb"},
		{`a\tb`, "a\tb"},
		{`a\\b`, `a\b`},
		{`a\101b`, "aAb"},
	}
	for _, c := range cases {
		got, ok := decodeEscapedString(c.in)
		if !ok {
			t.Fatalf("decodeEscapedString(%q): unexpected failure", c.in)
		}
		if got != c.want {
			t.Errorf("decodeEscapedString(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDecodeEscapedStringInvalid(t *testing.T) {
	if _, ok := decodeEscapedString(`bad\`); ok {
		t.Fatal("expected failure on trailing backslash")
	}
}

// TestDecodeXMLEntitiesGtFix verifies the deliberate fix of the original
// decoder's &gt; bug (it decoded &gt; to '<' by reusing &lt;'s output
// character).
func TestDecodeXMLEntitiesGtFix(t *testing.T) {
	got := decodeXMLEntities("1 &lt; 2 &gt; 0")
	want := "1 < 2 > 0"
	if got != want {
		t.Errorf("decodeXMLEntities = %q, want %q", got, want)
	}
}

func TestDecodeXMLEntitiesAmpAndQuot(t *testing.T) {
	got := decodeXMLEntities("Tom &amp; Jerry said &quot;hi&quot; &apos;ok&apos;")
	want := `Tom & Jerry said "hi" 'ok'`
	if got != want {
		t.Errorf("decodeXMLEntities = %q, want %q", got, want)
	}
}
