package codadef

import (
	"encoding/xml"
	"io"
	"strconv"

	"github.com/stcorp/coda-go/errs"
	"github.com/stcorp/coda-go/expr"
)

// parseProductClass decodes one codadef product-class XML document
// (products/<Name>.xml in the archive layout) into a ProductClass, with no
// NamedType cross-references available (equivalent to
// parseProductClassResolved(r, nil)).
//
// Grounded on coda-definition-parse.c's start_element_handler /
// end_element_handler pair: that code keeps an explicit stack of "what
// element am I inside" state and dispatches on element tag. Go's
// xml.Decoder gives token-at-a-time access the same way expat's SAX
// callbacks do, so this reproduces the same shape as a stack of small
// visit functions rather than unmarshaling into a tagged struct tree —
// the element set genuinely needs stack-sensitive handling (a
// <DetectionRule> only makes sense nested inside <ProductDefinition>, a
// <MatchExpression> only inside <DetectionRule>) the way a single
// xml.Unmarshal call cannot express for this subset of elements.
func parseProductClass(r io.Reader) (*ProductClass, error) {
	return parseProductClassResolved(r, nil)
}

// parseProductClassResolved is parseProductClass with named resolved
// against a sibling-entry NamedType lookup (nil when the document is known
// not to reference any named types, e.g. in tests).
func parseProductClassResolved(r io.Reader, named *namedTypeResolver) (*ProductClass, error) {
	dec := xml.NewDecoder(r)
	p := &classParser{dec: dec, named: named}
	if err := p.run(); err != nil {
		return nil, err
	}
	if p.class == nil {
		return nil, errs.New(errs.DataDefinition, "codadef: document has no ProductClass element")
	}
	return p.class, nil
}

type classParser struct {
	dec   *xml.Decoder
	class *ProductClass
	named *namedTypeResolver

	curType *ProductType
	curDef  *ProductDefinition
	curRule *DetectionRule
	curVar  *ProductVariable

	charData string
}

func (p *classParser) run() error {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errs.Wrap(errs.XML, err, "codadef: parsing product class document")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.start(t); err != nil {
				return err
			}
		case xml.EndElement:
			if err := p.end(t.Name.Local); err != nil {
				return err
			}
		case xml.CharData:
			p.charData += string(t)
		}
	}
}

func attr(se xml.StartElement, name string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (p *classParser) start(se xml.StartElement) error {
	p.charData = ""

	switch se.Name.Local {
	case "ProductClass":
		p.class = &ProductClass{}
		if v, ok := attr(se, "name"); ok {
			p.class.Name = v
		}
	case "ProductType":
		p.curType = &ProductType{}
		if v, ok := attr(se, "name"); ok {
			p.curType.Name = v
		}
	case "ProductDefinition":
		p.curDef = &ProductDefinition{Revision: 1}
		if v, ok := attr(se, "name"); ok {
			p.curDef.Name = v
		}
		if v, ok := attr(se, "format"); ok {
			p.curDef.Format = v
		}
		if v, ok := attr(se, "version"); ok {
			if n, err := strconv.Atoi(v); err == nil {
				p.curDef.Revision = n
			}
		}
	case "DetectionRule":
		p.curRule = &DetectionRule{}
	case "MatchFilename":
		// pattern is in char data; handled in end().
	case "MatchSize":
		// size is in char data; handled in end().
	case "MatchExpression":
		// expression text is in char data; handled in end().
	case "ProductVariable":
		p.curVar = &ProductVariable{}
		if v, ok := attr(se, "name"); ok {
			p.curVar.Name = v
		}
	case "Init":
		// expression text is in char data; handled in end().
	case "Description":
		// handled in end() against whichever scope is open.
	case "Type":
		typ, err := parseTypeElement(p.dec, se, p.named)
		if err != nil {
			return err
		}
		if p.curDef != nil {
			p.curDef.RootType = typ
		}
	}
	return nil
}

func (p *classParser) end(name string) error {
	text := p.charData
	p.charData = ""

	switch name {
	case "ProductClass":
		// nothing to finalize; p.class already populated.
	case "ProductType":
		if p.class != nil && p.curType != nil {
			p.class.Types = append(p.class.Types, p.curType)
		}
		p.curType = nil
	case "ProductDefinition":
		if p.curType != nil && p.curDef != nil {
			p.curDef.TypeName = p.curType.Name
			if p.class != nil {
				p.curDef.ClassName = p.class.Name
			}
			p.curType.Definitions = append(p.curType.Definitions, p.curDef)
		}
		p.curDef = nil
	case "DetectionRule":
		if p.curDef != nil && p.curRule != nil {
			p.curDef.DetectionRules = append(p.curDef.DetectionRules, *p.curRule)
		}
		p.curRule = nil
	case "MatchFilename":
		if p.curRule != nil {
			pattern, ok := decodeEscapedString(text)
			if !ok {
				return errs.New(errs.DataDefinition, "codadef: invalid escaped string in MatchFilename")
			}
			p.curRule.Conditions = append(p.curRule.Conditions, Condition{Kind: MatchFilename, Pattern: pattern})
		}
	case "MatchSize":
		if p.curRule != nil {
			n, err := strconv.ParseInt(text, 10, 64)
			if err != nil {
				return errs.Wrap(errs.DataDefinition, err, "codadef: invalid MatchSize value %q", text)
			}
			p.curRule.Conditions = append(p.curRule.Conditions, Condition{Kind: MatchSize, Size: n})
		}
	case "MatchExpression":
		if p.curRule != nil {
			node, err := expr.Parse(text)
			if err != nil {
				return errs.Wrap(errs.ExpressionSyntax, err, "codadef: invalid MatchExpression %q", text)
			}
			p.curRule.Conditions = append(p.curRule.Conditions, Condition{Kind: MatchExpression, Expression: node})
		}
	case "ProductVariable":
		if p.curDef != nil && p.curVar != nil {
			p.curDef.Variables = append(p.curDef.Variables, *p.curVar)
		}
		p.curVar = nil
	case "Init":
		if p.curVar != nil {
			node, err := expr.Parse(text)
			if err != nil {
				return errs.Wrap(errs.ExpressionSyntax, err, "codadef: invalid Init expression %q", text)
			}
			p.curVar.Init = node
		}
	case "Description":
		desc := decodeXMLEntities(text)
		switch {
		case p.curDef != nil:
			p.curDef.Description = desc
		case p.curType != nil:
			p.curType.Description = desc
		case p.class != nil:
			p.class.Description = desc
		}
	}
	return nil
}
