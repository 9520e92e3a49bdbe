package vm

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("inkcore.vm")

// ---------------------------------------------------------------------------
// Context: one story execution context
// ---------------------------------------------------------------------------

// Options sizes the fixed buffers of a Context.
type Options struct {
	StackSize     int // evaluation stack capacity
	CallStackSize int // call stack capacity
	GlobalsSize   int // global variable stack capacity

	// GCThreshold triggers CollectGarbage from MaybeCollect once the string
	// table holds more strings. Zero leaves collection to the caller.
	GCThreshold int
}

// Default capacities
const (
	DefaultStackSize     = 1024
	DefaultCallStackSize = 512
	DefaultGlobalsSize   = 256
)

// DefaultOptions returns the default capacities with manual collection.
func DefaultOptions() Options {
	return Options{
		StackSize:     DefaultStackSize,
		CallStackSize: DefaultCallStackSize,
		GlobalsSize:   DefaultGlobalsSize,
	}
}

// GCStats holds statistics from a single collection.
type GCStats struct {
	Before        int // strings before the sweep
	Swept         int // strings deleted
	Live          int // strings after the sweep
	SweepDuration time.Duration
	Timestamp     time.Time
}

// Context owns the stacks and string table of one running story. It is not
// safe for concurrent use.
type Context struct {
	ID      string
	Globals *NamedStack
	Calls   *NamedStack
	Eval    *EvalStack
	Strings *StringTable

	opts      Options
	sweeps    uint64
	lastStats *GCStats
}

// NewContext allocates a Context with buffers sized by opts. Zero sizes fall
// back to the defaults.
func NewContext(opts Options) *Context {
	def := DefaultOptions()
	if opts.StackSize <= 0 {
		opts.StackSize = def.StackSize
	}
	if opts.CallStackSize <= 0 {
		opts.CallStackSize = def.CallStackSize
	}
	if opts.GlobalsSize <= 0 {
		opts.GlobalsSize = def.GlobalsSize
	}

	c := &Context{
		ID:      uuid.New().String(),
		Globals: NewNamedStack("globals", make([]Entry, opts.GlobalsSize)),
		Calls:   NewNamedStack("callstack", make([]Entry, opts.CallStackSize)),
		Eval:    NewEvalStack("eval", make([]Value, opts.StackSize)),
		Strings: NewStringTable(),
		opts:    opts,
	}
	log.Debugf("context %s: eval=%d calls=%d globals=%d",
		c.ID, opts.StackSize, opts.CallStackSize, opts.GlobalsSize)
	return c
}

// Options returns the sizes the context was built with.
func (c *Context) Options() Options {
	return c.opts
}

// Reset empties every stack and the string table without reallocating
// stack storage.
func (c *Context) Reset() {
	c.Globals.Clear()
	c.Calls.Clear()
	c.Eval.Clear()
	c.Strings.Clear()
	log.Debugf("context %s: reset", c.ID)
}

// ---------------------------------------------------------------------------
// Snapshots
// ---------------------------------------------------------------------------

type snapshotter interface {
	Save() error
	Restore() error
	Forget() error
}

func (c *Context) stacks() []snapshotter {
	return []snapshotter{c.Globals, c.Calls, c.Eval}
}

// Save snapshots every stack. If any stack is already saved none is left
// newly saved.
func (c *Context) Save() error {
	stacks := c.stacks()
	for i, s := range stacks {
		if err := s.Save(); err != nil {
			errs := []error{err}
			for _, done := range stacks[:i] {
				errs = append(errs, done.Restore())
			}
			return errors.Join(errs...)
		}
	}
	return nil
}

// Restore rolls every stack back to its snapshot.
func (c *Context) Restore() error {
	var errs []error
	for _, s := range c.stacks() {
		errs = append(errs, s.Restore())
	}
	return errors.Join(errs...)
}

// Forget commits the state of every stack.
func (c *Context) Forget() error {
	var errs []error
	for _, s := range c.stacks() {
		errs = append(errs, s.Forget())
	}
	return errors.Join(errs...)
}

// Speculate runs fn against a snapshot of every stack. The changes are kept
// when fn returns true and rolled back otherwise. A fatal stack error raised
// inside fn rolls back and is returned.
func (c *Context) Speculate(fn func() bool) error {
	if err := c.Save(); err != nil {
		return err
	}

	keep := false
	if err := Guard(func() { keep = fn() }); err != nil {
		if rerr := c.Restore(); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	if keep {
		return c.Forget()
	}
	return c.Restore()
}

// ---------------------------------------------------------------------------
// Garbage collection
// ---------------------------------------------------------------------------

// CollectGarbage marks every string reachable from the stacks, snapshots
// included, and sweeps the rest from the string table.
func (c *Context) CollectGarbage() *GCStats {
	start := time.Now()
	stats := &GCStats{
		Before:    c.Strings.Len(),
		Timestamp: start,
	}

	c.Strings.ClearUsage()
	c.Globals.MarkStrings(c.Strings)
	c.Calls.MarkStrings(c.Strings)
	c.Eval.MarkStrings(c.Strings)
	stats.Swept = c.Strings.GC()

	stats.Live = c.Strings.Len()
	stats.SweepDuration = time.Since(start)
	c.sweeps++
	c.lastStats = stats

	log.Debugf("context %s: gc swept %d of %d strings in %s",
		c.ID, stats.Swept, stats.Before, stats.SweepDuration)
	return stats
}

// MaybeCollect runs CollectGarbage when the string table has grown past the
// configured threshold. It returns nil when no collection ran.
func (c *Context) MaybeCollect() *GCStats {
	if c.opts.GCThreshold <= 0 || c.Strings.Len() <= c.opts.GCThreshold {
		return nil
	}
	return c.CollectGarbage()
}

// SweepCount returns the number of collections performed.
func (c *Context) SweepCount() uint64 {
	return c.sweeps
}

// LastStats returns statistics from the most recent collection, or nil.
func (c *Context) LastStats() *GCStats {
	return c.lastStats
}
