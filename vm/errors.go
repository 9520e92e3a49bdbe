package vm

import (
	"errors"
	"fmt"
)

// Contract violations raised by the stacks. They are reported wrapped in a
// *StackError; use errors.Is to test for a kind.
var (
	ErrStackOverflow             = errors.New("stack overflow")
	ErrStackUnderflow            = errors.New("stack underflow")
	ErrNoFrame                   = errors.New("no frame on stack")
	ErrDoubleSave                = errors.New("stack already saved; restore or forget first")
	ErrRestoreWithoutSave        = errors.New("restore without save")
	ErrForgetWithoutSave         = errors.New("forget without save")
	ErrThreadingWhileSnapshotted = errors.New("threading while a snapshot is active")
)

// StackError describes a contract violation on a named stack.
//
// Overflow, underflow and missing frames are fatal: the stack panics with a
// *StackError. Snapshot and threading violations are returned instead.
type StackError struct {
	Stack string // name of the stack instance
	Op    string // operation that failed
	Err   error  // one of the Err* kinds above
}

func (e *StackError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stack, e.Op, e.Err)
}

func (e *StackError) Unwrap() error {
	return e.Err
}

// fatal logs and panics with a StackError.
func fatal(stack, op string, err error) {
	se := &StackError{Stack: stack, Op: op, Err: err}
	log.Errorf("%s", se)
	panic(se)
}

// Guard runs fn and converts a fatal *StackError panic into a returned error.
// Any other panic is propagated.
func Guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*StackError)
			if !ok {
				panic(r)
			}
			err = se
		}
	}()
	fn()
	return nil
}
