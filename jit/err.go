package jit

import (
	"errors"

	"github.com/sarchlab/rh850sim/internal/i18n"
)

var f = i18n.From

// Block construction and execution errors.
var (
	ErrUnboundLabel = errors.New(f("label used but never bound"))
	ErrNoExit       = errors.New(f("block does not end with an exit"))
	ErrStepLimit    = errors.New(f("block exceeded its step limit"))
)
