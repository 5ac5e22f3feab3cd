package expr

import (
	"fmt"
	"regexp"
	"time"
)

// referenceEpoch is 2000-01-01T00:00:00 UTC, the origin used by the Time
// special type's unit-expression conversion (spec.md §3, §4.9).
var referenceEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func (n *Call) Eval(ctx *Context) (Value, error) {
	args := make([]Value, len(n.Args))
	// bytes() treats its first argument as a path producing a cursor, not
	// a value to read; handle it before evaluating arguments generically.
	if n.Name == "bytes" {
		return n.evalBytes(ctx)
	}
	if n.Name == "exists" {
		return n.evalExists(ctx)
	}
	for i, a := range n.Args {
		v, err := a.Eval(ctx)
		if err != nil {
			return Void, err
		}
		args[i] = v
	}

	switch n.Name {
	case "file_size":
		if ctx == nil || ctx.Cursor == nil {
			return Void, &EvalError{Msg: "file_size() used without a cursor"}
		}
		sz, err := ctx.Cursor.FileSize()
		if err != nil {
			return Void, err
		}
		return IntValue(sz), nil

	case "filename":
		if ctx == nil || ctx.Cursor == nil {
			return Void, &EvalError{Msg: "filename() used without a cursor"}
		}
		name, err := ctx.Cursor.FileName()
		if err != nil {
			return Void, err
		}
		return StringValue([]byte(name)), nil

	case "str":
		requireArgs(args, 1)
		s, err := args[0].AsString()
		if err != nil {
			return Void, err
		}
		return StringValue(s), nil

	case "int":
		requireArgs(args, 1)
		i, err := args[0].AsInt()
		if err != nil {
			return Void, err
		}
		return IntValue(i), nil

	case "float":
		requireArgs(args, 1)
		f, err := args[0].AsFloat()
		if err != nil {
			return Void, err
		}
		return FloatValue(f), nil

	case "bool":
		requireArgs(args, 1)
		b, err := args[0].AsBool()
		if err != nil {
			return Void, err
		}
		return BoolValue(b), nil

	case "regex":
		if len(args) != 2 {
			return Void, &EvalError{Msg: "regex() takes 2 arguments"}
		}
		pat, err := args[0].AsString()
		if err != nil {
			return Void, err
		}
		text, err := args[1].AsString()
		if err != nil {
			return Void, err
		}
		re, err := regexp.Compile(string(pat))
		if err != nil {
			return Void, &EvalError{Msg: "invalid regex: " + err.Error()}
		}
		return BoolValue(re.Match(text)), nil

	case "substr":
		if len(args) != 3 {
			return Void, &EvalError{Msg: "substr() takes 3 arguments"}
		}
		start, err := args[0].AsInt()
		if err != nil {
			return Void, err
		}
		length, err := args[1].AsInt()
		if err != nil {
			return Void, err
		}
		s, err := args[2].AsString()
		if err != nil {
			return Void, err
		}
		if start < 0 || length < 0 || start+length > int64(len(s)) {
			return Void, &EvalError{Msg: "substr() out of range"}
		}
		return StringValue(s[start : start+length]), nil

	case "time":
		if len(args) != 2 {
			return Void, &EvalError{Msg: "time() takes 2 arguments"}
		}
		s, err := args[0].AsString()
		if err != nil {
			return Void, err
		}
		format, err := args[1].AsString()
		if err != nil {
			return Void, err
		}
		goLayout := codaTimeFormatToGo(string(format))
		t, err := time.Parse(goLayout, string(s))
		if err != nil {
			return Void, &EvalError{Msg: "time() parse error: " + err.Error()}
		}
		return FloatValue(t.Sub(referenceEpoch).Seconds()), nil

	default:
		return Void, &EvalError{Msg: fmt.Sprintf("unknown function %q", n.Name)}
	}
}

func (n *Call) evalBytes(ctx *Context) (Value, error) {
	if len(n.Args) != 2 {
		return Void, &EvalError{Msg: "bytes() takes 2 arguments"}
	}
	p, ok := n.Args[0].(*Path)
	if !ok {
		return Void, &EvalError{Msg: "bytes() first argument must be a path expression"}
	}
	cur, err := p.navigate(ctx)
	if err != nil {
		return Void, err
	}
	lv, err := n.Args[1].Eval(ctx)
	if err != nil {
		return Void, err
	}
	_, err = lv.AsInt()
	if err != nil {
		return Void, err
	}
	v, err := cur.ReadValue()
	if err != nil {
		return Void, err
	}
	s, err := v.AsString()
	if err != nil {
		return Void, err
	}
	return StringValue(s), nil
}

func (n *Call) evalExists(ctx *Context) (Value, error) {
	if len(n.Args) != 1 {
		return Void, &EvalError{Msg: "exists() takes 1 argument"}
	}
	p, ok := n.Args[0].(*Path)
	if !ok {
		return Void, &EvalError{Msg: "exists() argument must be a path expression"}
	}
	_, err := p.navigate(ctx)
	return BoolValue(err == nil), nil
}

func requireArgs(args []Value, n int) {
	if len(args) != n {
		panic(fmt.Sprintf("expr: internal: expected %d args, got %d", n, len(args)))
	}
}

// codaTimeFormatToGo translates the small set of strftime-like directives
// codadef time-format strings use into a Go reference-time layout.
func codaTimeFormatToGo(format string) string {
	replacer := []struct{ from, to string }{
		{"yyyy", "2006"}, {"MM", "01"}, {"dd", "02"},
		{"HH", "15"}, {"mm", "04"}, {"ss", "05"},
	}
	out := format
	for _, r := range replacer {
		out = replaceAll(out, r.from, r.to)
	}
	return out
}

func replaceAll(s, old, new string) string {
	var out []byte
	for i := 0; i < len(s); {
		if i+len(old) <= len(s) && s[i:i+len(old)] == old {
			out = append(out, new...)
			i += len(old)
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}
