// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package serr defines the typed error kinds raised by the solver, on top
// of gosl/chk's wrapped-error helper.
package serr

import (
	"errors"
	"fmt"

	"github.com/cpmech/gosl/chk"
)

// Kind identifies one of the terminal failure categories of the solver.
type Kind int

const (
	// ConfigInvalid indicates the configuration file failed schema validation.
	ConfigInvalid Kind = iota
	// InputMalformed indicates a parsing failure on input file 1 or 2.
	InputMalformed
	// PressureRangeTooHigh indicates the desired pressure range exceeds what
	// the QHA engine's p(T,V) grid can resolve.
	PressureRangeTooHigh
	// RankDeficient indicates the symmetry-filler system is under-determined.
	RankDeficient
	// ResidualTooLarge indicates the symmetry-filler residuals exceed tolerance.
	ResidualTooLarge
	// ShearNotImplemented indicates a shear component with i != j was requested.
	ShearNotImplemented
	// NumericFailure indicates an LLS/eigendecomposition/inversion failure.
	NumericFailure
)

func (k Kind) String() string {
	switch k {
	case ConfigInvalid:
		return "ConfigInvalid"
	case InputMalformed:
		return "InputMalformed"
	case PressureRangeTooHigh:
		return "PressureRangeTooHigh"
	case RankDeficient:
		return "RankDeficient"
	case ResidualTooLarge:
		return "ResidualTooLarge"
	case ShearNotImplemented:
		return "ShearNotImplemented"
	case NumericFailure:
		return "NumericFailure"
	default:
		return "Unknown"
	}
}

// Error is a kind-tagged, chk-wrapped error.
type Error struct {
	Kind    Kind
	Context string
	cause   error
}

func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.cause)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds a Kind-tagged error with a printf-style message, the same
// calling convention as chk.Err.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, cause: chk.Err(format, args...)}
}

// Wrap attaches a Kind and context label to a pre-existing error.
func Wrap(kind Kind, context string, cause error) error {
	return &Error{Kind: kind, Context: context, cause: cause}
}

// Is reports whether err carries the given Kind, per the errors.As protocol.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
