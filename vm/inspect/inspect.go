// Package inspect captures the state of an execution context for debugging.
//
// A Snapshot is a diagnostic view: stacks are recorded in logical order with
// holes and nullified entries already removed, and strings are resolved to
// their text. It is not meant to be loaded back into a Context.
package inspect

import (
	"github.com/chazu/inkcore/vm"
)

// Snapshot is the captured state of one vm.Context.
type Snapshot struct {
	ContextID string        `cbor:"1,keyasint"`
	Globals   StackState    `cbor:"2,keyasint"`
	Calls     StackState    `cbor:"3,keyasint"`
	Eval      StackState    `cbor:"4,keyasint"`
	Strings   []StringEntry `cbor:"5,keyasint"`
}

// StackState describes one stack.
type StackState struct {
	Name    string      `cbor:"1,keyasint"`
	Cap     int         `cbor:"2,keyasint"`
	Saved   bool        `cbor:"3,keyasint"`
	Entries []EntryInfo `cbor:"4,keyasint"`
}

// EntryInfo is one stack slot. Name is empty on the evaluation stack and
// for frame records.
type EntryInfo struct {
	Name  uint64    `cbor:"1,keyasint,omitempty"`
	Frame bool      `cbor:"2,keyasint,omitempty"`
	Value ValueInfo `cbor:"3,keyasint"`
}

// ValueInfo is a printable form of a vm.Value.
type ValueInfo struct {
	Kind string `cbor:"1,keyasint"`
	Text string `cbor:"2,keyasint"`
}

// StringEntry is one live string table entry.
type StringEntry struct {
	Ref  uint32 `cbor:"1,keyasint"`
	Text string `cbor:"2,keyasint"`
}

// Capture records the current state of c.
func Capture(c *vm.Context) *Snapshot {
	s := &Snapshot{
		ContextID: c.ID,
		Globals:   captureNamed("globals", c.Globals, c.Strings),
		Calls:     captureNamed("callstack", c.Calls, c.Strings),
		Eval:      captureEval("eval", c.Eval, c.Strings),
	}
	c.Strings.Each(func(ref vm.StringRef, text string) bool {
		s.Strings = append(s.Strings, StringEntry{Ref: uint32(ref), Text: text})
		return true
	})
	return s
}

func captureNamed(name string, st *vm.NamedStack, strs *vm.StringTable) StackState {
	state := StackState{Name: name, Cap: st.Cap(), Saved: st.Saved()}
	for _, e := range st.Entries() {
		info := EntryInfo{Value: describe(e.Data, strs)}
		if e.Kind == vm.EntryFrame {
			info.Frame = true
		} else {
			info.Name = uint64(e.Name)
		}
		state.Entries = append(state.Entries, info)
	}
	return state
}

func captureEval(name string, st *vm.EvalStack, strs *vm.StringTable) StackState {
	state := StackState{Name: name, Cap: st.Cap(), Saved: st.Saved()}
	for _, v := range st.Values() {
		state.Entries = append(state.Entries, EntryInfo{Value: describe(v, strs)})
	}
	return state
}

func describe(v vm.Value, strs *vm.StringTable) ValueInfo {
	info := ValueInfo{Kind: v.Kind().String(), Text: v.String()}
	if v.Kind() == vm.KindString {
		if text, ok := strs.Lookup(v.StringRef()); ok {
			info.Text = text
		}
	}
	return info
}
