package types

import "github.com/stcorp/coda-go/expr"

// Field is one member of a Record (spec.md §3): a name, an optional
// distinct "real name" (the name as it appears on the wire, when it
// differs from the Go-safe/DSL-safe field name), a type, and the
// optional/hidden/availability/bit-offset metadata a dynamic tree
// consults when instantiating a record.
type Field struct {
	Name      string
	RealName  string // defaults to Name if not set separately
	Type      Type
	Optional  bool
	Hidden    bool

	// Available is nil for fields that are always present; otherwise it is
	// evaluated against the enclosing record's cursor to decide presence.
	Available expr.Node

	// BitOffset is nil when the field's offset follows directly from its
	// predecessor's size; otherwise it is evaluated to compute an explicit
	// bit offset.
	BitOffset expr.Node
}

// effectiveRealName returns RealName, falling back to Name.
func (f *Field) effectiveRealName() string {
	if f.RealName != "" {
		return f.RealName
	}
	return f.Name
}

// Record is the static type of an ordered collection of named fields,
// optionally marked as a union with a field-selector expression. Field
// lookup by name and by real-name is backed by a hash index, satisfying
// spec.md §4.4's "O(1) average" requirement.
type Record struct {
	baseType

	fields       []Field
	byName       map[string]int
	byRealName   map[string]int

	IsUnion  bool
	Selector expr.Node // required when IsUnion is true
}

// NewRecord constructs an empty record.
func NewRecord() *Record {
	return &Record{
		byName:     map[string]int{},
		byRealName: map[string]int{},
	}
}

// EmptyRecord is a shared singleton used by the cursor's goto_attributes
// operation when a node has no attributes record of its own (spec.md §4.8).
var EmptyRecord = NewRecord()

func (r *Record) Class() Class { return ClassRecord }

func (r *Record) BitSize() (int64, bool) {
	total := int64(0)
	for i := range r.fields {
		f := &r.fields[i]
		if f.Hidden {
			continue
		}
		size, ok := f.Type.BitSize()
		if !ok {
			return 0, false
		}
		total += size
	}
	return total, true
}

// NumFields returns the number of fields, in declaration order.
func (r *Record) NumFields() int { return len(r.fields) }

// Field returns the field at index i.
func (r *Record) Field(i int) *Field { return &r.fields[i] }

// AddField appends a new field, rejecting duplicate names (by Name or by
// effective real-name) as spec.md §4.4 requires.
func (r *Record) AddField(f Field) error {
	if _, dup := r.byName[f.Name]; dup {
		return validationError("duplicate field name %q", f.Name)
	}
	realName := f.effectiveRealName()
	if _, dup := r.byRealName[realName]; dup {
		return validationError("duplicate field real-name %q", realName)
	}
	idx := len(r.fields)
	r.fields = append(r.fields, f)
	r.byName[f.Name] = idx
	r.byRealName[realName] = idx
	return nil
}

// FieldIndexByName returns the index of the field named name, or -1.
func (r *Record) FieldIndexByName(name string) int {
	if i, ok := r.byName[name]; ok {
		return i
	}
	return -1
}

// FieldIndexByRealName returns the index of the field whose real-name
// matches name, or -1.
func (r *Record) FieldIndexByRealName(name string) int {
	if i, ok := r.byRealName[name]; ok {
		return i
	}
	return -1
}

// Validate enforces spec.md §4.4's record/union construction rules: a
// record must have at least one field (unless explicitly marked empty by
// the caller via allowEmpty), and a union must carry a selector
// expression.
func (r *Record) Validate(allowEmpty bool) error {
	if len(r.fields) == 0 && !allowEmpty {
		return validationError("record has no fields")
	}
	if r.IsUnion && r.Selector == nil {
		return validationError("union record has no field-selector expression")
	}
	return nil
}
