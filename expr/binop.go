package expr

func (n *BinaryOp) Eval(ctx *Context) (Value, error) {
	switch n.Op {
	case "&&":
		l, err := n.Left.Eval(ctx)
		if err != nil {
			return Void, err
		}
		lb, err := l.AsBool()
		if err != nil {
			return Void, err
		}
		if !lb {
			return BoolValue(false), nil
		}
		r, err := n.Right.Eval(ctx)
		if err != nil {
			return Void, err
		}
		rb, err := r.AsBool()
		if err != nil {
			return Void, err
		}
		return BoolValue(rb), nil
	case "||":
		l, err := n.Left.Eval(ctx)
		if err != nil {
			return Void, err
		}
		lb, err := l.AsBool()
		if err != nil {
			return Void, err
		}
		if lb {
			return BoolValue(true), nil
		}
		r, err := n.Right.Eval(ctx)
		if err != nil {
			return Void, err
		}
		rb, err := r.AsBool()
		if err != nil {
			return Void, err
		}
		return BoolValue(rb), nil
	}

	l, err := n.Left.Eval(ctx)
	if err != nil {
		return Void, err
	}
	r, err := n.Right.Eval(ctx)
	if err != nil {
		return Void, err
	}

	switch n.Op {
	case "==", "!=", "<", "<=", ">", ">=":
		return compare(n.Op, l, r)
	case "+", "-", "*", "/", "%":
		return arith(n.Op, l, r)
	default:
		return Void, &EvalError{Msg: "unknown binary operator " + n.Op}
	}
}

func isStringKind(v Value) bool { return v.Kind == KindString }

func compare(op string, l, r Value) (Value, error) {
	if isStringKind(l) || isStringKind(r) {
		ls, err := l.AsString()
		if err != nil {
			return Void, err
		}
		rs, err := r.AsString()
		if err != nil {
			return Void, err
		}
		c := compareBytes(ls, rs)
		return BoolValue(cmpResult(op, c)), nil
	}
	if l.Kind == KindFloat || r.Kind == KindFloat {
		lf, err := l.AsFloat()
		if err != nil {
			return Void, err
		}
		rf, err := r.AsFloat()
		if err != nil {
			return Void, err
		}
		c := 0
		switch {
		case lf < rf:
			c = -1
		case lf > rf:
			c = 1
		}
		return BoolValue(cmpResult(op, c)), nil
	}
	li, err := l.AsInt()
	if err != nil {
		return Void, err
	}
	ri, err := r.AsInt()
	if err != nil {
		return Void, err
	}
	c := 0
	switch {
	case li < ri:
		c = -1
	case li > ri:
		c = 1
	}
	return BoolValue(cmpResult(op, c)), nil
}

func cmpResult(op string, c int) bool {
	switch op {
	case "==":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func arith(op string, l, r Value) (Value, error) {
	if l.Kind == KindFloat || r.Kind == KindFloat {
		lf, err := l.AsFloat()
		if err != nil {
			return Void, err
		}
		rf, err := r.AsFloat()
		if err != nil {
			return Void, err
		}
		switch op {
		case "+":
			return FloatValue(lf + rf), nil
		case "-":
			return FloatValue(lf - rf), nil
		case "*":
			return FloatValue(lf * rf), nil
		case "/":
			if rf == 0 {
				return Void, &EvalError{Msg: "division by zero"}
			}
			return FloatValue(lf / rf), nil
		case "%":
			return Void, &EvalError{Msg: "modulo not defined for floats"}
		}
	}
	li, err := l.AsInt()
	if err != nil {
		return Void, err
	}
	ri, err := r.AsInt()
	if err != nil {
		return Void, err
	}
	switch op {
	case "+":
		return IntValue(li + ri), nil
	case "-":
		return IntValue(li - ri), nil
	case "*":
		return IntValue(li * ri), nil
	case "/":
		if ri == 0 {
			return Void, &EvalError{Msg: "division by zero"}
		}
		return IntValue(li / ri), nil
	case "%":
		if ri == 0 {
			return Void, &EvalError{Msg: "division by zero"}
		}
		return IntValue(li % ri), nil
	}
	return Void, &EvalError{Msg: "unknown arithmetic operator " + op}
}
