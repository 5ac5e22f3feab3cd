package expr

// Node is one AST node of a parsed expression. Evaluation returns a tagged
// Value (spec.md §4.5): bool, int, float, string, or void (assignment).
type Node interface {
	Eval(ctx *Context) (Value, error)

	// IsConstant reports whether this subtree can be folded to a plain
	// literal at parse time (coda_expression_is_constant). A node is
	// constant iff it and all its children do not depend on a cursor or a
	// mutable variable.
	IsConstant() bool
}

// Literal is a bool/int/float/string constant.
type Literal struct {
	Value Value
}

func (n *Literal) Eval(*Context) (Value, error) { return n.Value, nil }
func (n *Literal) IsConstant() bool             { return true }

// Identifier reads a named product variable from the evaluation context.
type Identifier struct {
	Name string
}

func (n *Identifier) Eval(ctx *Context) (Value, error) {
	if ctx == nil {
		return Void, &EvalError{Msg: "identifier " + n.Name + " used outside a context"}
	}
	v, ok := ctx.Variables[n.Name]
	if !ok {
		return Void, &EvalError{Msg: "unknown variable " + n.Name}
	}
	return v, nil
}
func (n *Identifier) IsConstant() bool { return false }

// Assign evaluates Rhs and stores it under Name in the context's variable
// map, producing a void result (used by <Init> blocks and product
// variables with an assignment body).
type Assign struct {
	Name string
	Rhs  Node
}

func (n *Assign) Eval(ctx *Context) (Value, error) {
	v, err := n.Rhs.Eval(ctx)
	if err != nil {
		return Void, err
	}
	ctx.Variables[n.Name] = v
	return Void, nil
}
func (n *Assign) IsConstant() bool { return false }

// UnaryOp applies a prefix operator ("!" or "-") to Operand.
type UnaryOp struct {
	Op      string
	Operand Node
}

func (n *UnaryOp) IsConstant() bool { return n.Operand.IsConstant() }

func (n *UnaryOp) Eval(ctx *Context) (Value, error) {
	v, err := n.Operand.Eval(ctx)
	if err != nil {
		return Void, err
	}
	switch n.Op {
	case "!":
		b, err := v.AsBool()
		if err != nil {
			return Void, err
		}
		return BoolValue(!b), nil
	case "-":
		if v.Kind == KindFloat {
			return FloatValue(-v.Flt), nil
		}
		i, err := v.AsInt()
		if err != nil {
			return Void, err
		}
		return IntValue(-i), nil
	default:
		return Void, &EvalError{Msg: "unknown unary operator " + n.Op}
	}
}

// BinaryOp applies an infix operator to Left and Right.
type BinaryOp struct {
	Op          string
	Left, Right Node
}

func (n *BinaryOp) IsConstant() bool { return n.Left.IsConstant() && n.Right.IsConstant() }

// Call invokes a built-in function by name with a fixed argument list.
type Call struct {
	Name string
	Args []Node
}

func (n *Call) IsConstant() bool {
	switch n.Name {
	case "file_size", "filename", "index", "time":
		return false
	}
	for _, a := range n.Args {
		if !a.IsConstant() {
			return false
		}
	}
	return true
}

// PathStep is one element of a navigation path: a record field, an array
// index, the attributes record, or a parent/root jump.
type PathStep struct {
	Field     string // set for a named-field step
	Index     Node   // set for an "[expr]" step
	Attribute bool   // "@field" or "@" (attributes record)
	Parent    bool   // ".."
	Root      bool   // leading "/"
}

// Path is a navigation expression: a (possibly empty) sequence of steps
// applied to a cloned cursor, whose terminal value is read unless the path
// is used purely for its navigation (e.g. as the argument to exists()).
type Path struct {
	Steps []PathStep
}

func (n *Path) IsConstant() bool { return false }

func (n *Path) Eval(ctx *Context) (Value, error) {
	cur, err := n.navigate(ctx)
	if err != nil {
		return Void, err
	}
	return cur.ReadValue()
}

// navigate clones the context's cursor and applies each step, returning the
// resulting cursor without reading a terminal value.
func (n *Path) navigate(ctx *Context) (Cursor, error) {
	if ctx == nil || ctx.Cursor == nil {
		return nil, &EvalError{Msg: "path expression used without a cursor"}
	}
	cur := ctx.Cursor.Clone()
	for _, step := range n.Steps {
		switch {
		case step.Root:
			if err := cur.GotoRoot(); err != nil {
				return nil, err
			}
		case step.Parent:
			if err := cur.GotoParent(); err != nil {
				return nil, err
			}
		case step.Attribute:
			if err := cur.GotoAttributes(); err != nil {
				return nil, err
			}
			if step.Field != "" {
				if err := cur.GotoRecordFieldByName(step.Field); err != nil {
					return nil, err
				}
			}
		case step.Index != nil:
			iv, err := step.Index.Eval(ctx)
			if err != nil {
				return nil, err
			}
			idx, err := iv.AsInt()
			if err != nil {
				return nil, err
			}
			if err := cur.GotoArrayElementByIndex(idx); err != nil {
				return nil, err
			}
		default:
			if err := cur.GotoRecordFieldByName(step.Field); err != nil {
				return nil, err
			}
		}
	}
	return cur, nil
}

// EvalError is returned for evaluation-time failures: type mismatch,
// division by zero, out-of-range conversion, or missing cursor context
// (spec.md §4.5), all surfaced as DataDefinition-class errors by callers.
type EvalError struct {
	Msg string
}

func (e *EvalError) Error() string { return "expr: " + e.Msg }
