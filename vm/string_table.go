package vm

import "github.com/chazu/inkcore/tree"

// ---------------------------------------------------------------------------
// StringTable: runtime strings with mark/sweep collection
// ---------------------------------------------------------------------------

type stringEntry struct {
	text string
	used bool
}

// StringTable owns the strings created while a story runs. Strings are
// addressed by StringRef; equal content can be shared through Intern.
//
// Collection is explicit: ClearUsage, then MarkUsed for every reachable
// reference (see NamedStack.MarkStrings and EvalStack.MarkStrings), then GC.
type StringTable struct {
	byRef  *tree.Tree[StringRef, stringEntry]
	byText *tree.Tree[string, StringRef]
	next   StringRef
}

// NewStringTable creates an empty table.
func NewStringTable() *StringTable {
	return &StringTable{
		byRef:  tree.New[StringRef, stringEntry](),
		byText: tree.New[string, StringRef](),
		next:   1,
	}
}

// Create stores s under a fresh reference, even if equal content exists.
func (st *StringTable) Create(s string) StringRef {
	ref := st.next
	st.next++
	if _, ok := st.byRef.Insert(ref, stringEntry{text: s}); !ok {
		// references are never reused, so this means the counter wrapped
		panic("StringTable.Create: duplicate string reference")
	}
	// first writer wins the intern slot
	st.byText.Insert(s, ref)
	return ref
}

// Intern returns the reference of an existing string equal to s, creating
// one if needed.
func (st *StringTable) Intern(s string) StringRef {
	if id, ok := st.byText.Find(s); ok {
		return st.byText.Value(id)
	}
	return st.Create(s)
}

// Lookup returns the text for ref.
func (st *StringTable) Lookup(ref StringRef) (string, bool) {
	id, ok := st.byRef.Find(ref)
	if !ok {
		return "", false
	}
	return st.byRef.Value(id).text, true
}

// Value creates a string Value holding the interned s.
func (st *StringTable) Value(s string) Value {
	return FromString(st.Intern(s))
}

// Len returns the number of live strings.
func (st *StringTable) Len() int {
	return st.byRef.Len()
}

// MarkUsed flags ref as reachable. Unknown references are ignored.
func (st *StringTable) MarkUsed(ref StringRef) {
	id, ok := st.byRef.Find(ref)
	if !ok {
		return
	}
	e := st.byRef.Value(id)
	e.used = true
	st.byRef.SetValue(id, e)
}

// ClearUsage resets every reachability flag.
func (st *StringTable) ClearUsage() {
	for id := st.byRef.First(); id != tree.Nil; id = st.byRef.Next(id) {
		e := st.byRef.Value(id)
		e.used = false
		st.byRef.SetValue(id, e)
	}
}

// GC deletes every string not marked since the last ClearUsage and returns
// how many were removed.
func (st *StringTable) GC() int {
	swept := 0
	var orphaned map[string]bool
	id := st.byRef.First()
	for id != tree.Nil {
		e := st.byRef.Value(id)
		if e.used {
			id = st.byRef.Next(id)
			continue
		}

		// drop the intern slot only if it points at this reference
		ref := st.byRef.Key(id)
		if tid, ok := st.byText.Find(e.text); ok && st.byText.Value(tid) == ref {
			st.byText.DeleteAt(tid)
			if orphaned == nil {
				orphaned = make(map[string]bool)
			}
			orphaned[e.text] = true
		}
		id = st.byRef.DeleteAt(id)
		swept++
	}

	// hand orphaned slots to the oldest survivor with the same text
	if len(orphaned) > 0 {
		st.byRef.Each(func(ref StringRef, e stringEntry) bool {
			if orphaned[e.text] {
				st.byText.Insert(e.text, ref)
				delete(orphaned, e.text)
			}
			return len(orphaned) > 0
		})
	}
	return swept
}

// Clear drops every string.
func (st *StringTable) Clear() {
	st.byRef.Clear()
	st.byText.Clear()
}

// Each calls fn for every live string in reference order until fn returns
// false.
func (st *StringTable) Each(fn func(ref StringRef, s string) bool) {
	st.byRef.Each(func(ref StringRef, e stringEntry) bool {
		return fn(ref, e.text)
	})
}
