// Package codadef loads the data dictionary of product classes, product
// types, product definitions, detection rules, and product-variable
// init-expressions from a codadef ZIP archive (spec.md §4.3, §4.6).
//
// Grounded on original_source/libcoda/coda-definition-parse.c. Besides the
// dictionary itself, this package parses each product definition's
// <Type> element tree — Integer/Float/Text/Array/Record/Union/Raw/Time/
// VSFInteger/Complex/NamedType and their Field/Attribute/Dimension/
// Conversion/Mapping children — into the same coda/types static-type
// values the CDF and GRIB backends build by hand, so a definition loaded
// from a codadef archive carries a real types.Type (ProductDefinition.
// RootType), not just detection metadata (see typeparse.go, DESIGN.md).
package codadef

import "strings"

// decodeEscapedString undoes the backslash escapes codadef XML uses inside
// FixedValue/MatchData character data (\n, \t, octal \NNN, ...), ported
// from decode_escaped_string.
func decodeEscapedString(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		i++
		if i >= len(s) {
			return "", false
		}
		switch s[i] {
		case 'e':
			b.WriteByte('\033')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '\\':
			b.WriteByte('\\')
		default:
			if s[i] < '0' || s[i] > '9' {
				return "", false
			}
			v := int(s[i] - '0')
			for k := 0; k < 2 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9'; k++ {
				i++
				v = v*8 + int(s[i]-'0')
			}
			b.WriteByte(byte(v))
		}
	}
	return b.String(), true
}

// decodeXMLEntities handles the small, fixed entity set codadef XML
// character data can carry outside of what an XML decoder already
// resolves (used for text read back out of a sub-parsed attribute value).
// Unlike the original's decode_xml_string, "&gt;" decodes to '>' here, not
// '<' (spec.md §9 names this as a bug in the original, not a behavior to
// preserve).
func decodeXMLEntities(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&apos;", "'",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
	)
	return replacer.Replace(s)
}
