package asm

import (
	"errors"

	"github.com/sarchlab/rh850sim/internal/i18n"
)

var f = i18n.From

// Assembler and encoder errors.
var (
	ErrOpcodeInvalid    = errors.New(f("opcode invalid"))
	ErrOperandCount     = errors.New(f("wrong number of operands"))
	ErrRegisterInvalid  = errors.New(f("register invalid"))
	ErrConditionInvalid = errors.New(f("condition invalid"))
	ErrSysRegInvalid    = errors.New(f("system register invalid"))
	ErrListInvalid      = errors.New(f("register list invalid"))
	ErrMemoryOperand    = errors.New(f("memory operand invalid"))
	ErrRange            = errors.New(f("operand out of range"))
	ErrAlign            = errors.New(f("operand misaligned"))
	ErrLabelDuplicate   = errors.New(f("label duplicated"))
	ErrEquateSyntax     = errors.New(f(".equ syntax"))
	ErrNoConvergence    = errors.New(f("label addresses do not converge"))
)

// ErrUnencodable reports an operation the encoder has no form for.
type ErrUnencodable string

func (err ErrUnencodable) Error() string {
	return f("'%v' cannot be encoded", string(err))
}

// ErrParseExpression reports an expression that does not evaluate to an
// integer.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("'%v' is not a valid expression", string(err))
}

// ErrSyntax locates an error in the source.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}
