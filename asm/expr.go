package asm

import (
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// eval computes an integer Starlark expression. Symbols are predeclared
// as integers.
func eval(expr string, symbols map[string]int64) (int64, error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, value := range symbols {
		pred[key] = starlark.MakeInt64(value)
	}

	prog := "rc = " + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return 0, err
	}

	rc, ok := dict["rc"].(starlark.Int)
	if !ok {
		return 0, ErrParseExpression(expr)
	}
	v, ok := rc.Int64()
	if !ok {
		return 0, ErrParseExpression(expr)
	}
	return v, nil
}
