package expr

// Cursor is the minimal navigation and read surface the expression
// evaluator needs. coda.Cursor implements it; dynamic.Node-backed test
// doubles can too, which keeps this package free of a dependency on the
// rest of the module.
type Cursor interface {
	// Clone returns an independent copy of the cursor so that path
	// sub-expressions (".." / "./field" / "[i]") can navigate without
	// disturbing the caller's cursor.
	Clone() Cursor

	GotoRecordFieldByName(name string) error
	GotoArrayElementByIndex(i int64) error
	GotoParent() error
	GotoRoot() error
	GotoAttributes() error

	// ReadValue reads the node currently addressed by the cursor as a
	// Value, converting bool/int/float/string/raw leaves as appropriate.
	ReadValue() (Value, error)

	FileSize() (int64, error)
	FileName() (string, error)
}

// Context supplies the evaluator with a cursor (optional, for
// path-dependent expressions) and a mutable variable namespace used by
// void-typed assignment expressions (product variables, init blocks).
type Context struct {
	Cursor    Cursor
	Variables map[string]Value
}

// NewContext creates an empty evaluation context with no cursor, suitable
// for constant-only expressions.
func NewContext() *Context {
	return &Context{Variables: map[string]Value{}}
}

// WithCursor returns a shallow copy of the context bound to cursor.
func (c *Context) WithCursor(cur Cursor) *Context {
	return &Context{Cursor: cur, Variables: c.Variables}
}
