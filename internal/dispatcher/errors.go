package dispatcher

import "errors"

// ErrGeometricViolation is the sentinel wrapped by every error this
// package returns for an operand that crosses an axis boundary or a
// move/PIM operation whose operands are not co-located where the kind
// requires it.
//
// The reference model these semantics are drawn from signals such
// violations with a magic "-1" return value. Dispatcher.Send preserves
// that numeric contract (it still returns ticks.ErrTicks alongside
// this error) while giving callers something they can errors.Is
// against instead of comparing a bare sentinel integer.
var ErrGeometricViolation = errors.New("pim: geometric violation")
