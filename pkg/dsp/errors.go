// ABOUTME: Sentinel errors for the dsp package
// ABOUTME: Lets callers test failures with errors.Is
package dsp

import "errors"

var (
	// ErrBandIndex is returned for an EQ band outside [0, NumEQBands)
	ErrBandIndex = errors.New("eq band index out of range")
)
