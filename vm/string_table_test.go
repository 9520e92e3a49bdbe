package vm

import "testing"

func TestStringTableCreateLookup(t *testing.T) {
	st := NewStringTable()
	a := st.Create("hello")
	b := st.Create("hello")
	if a == b {
		t.Error("Create returned the same reference twice")
	}
	if s, ok := st.Lookup(a); !ok || s != "hello" {
		t.Errorf("Lookup(a) = %q, %v", s, ok)
	}
	if st.Len() != 2 {
		t.Errorf("Len() = %d, want 2", st.Len())
	}
	if _, ok := st.Lookup(999); ok {
		t.Error("Lookup of unknown reference succeeded")
	}
}

func TestStringTableIntern(t *testing.T) {
	st := NewStringTable()
	a := st.Intern("brook")
	b := st.Intern("brook")
	c := st.Intern("river")

	if a != b {
		t.Errorf("Intern returned %d and %d for equal strings", a, b)
	}
	if a == c {
		t.Error("Intern shared a reference between different strings")
	}
	if st.Len() != 2 {
		t.Errorf("Len() = %d, want 2", st.Len())
	}
}

func TestStringTableGC(t *testing.T) {
	st := NewStringTable()
	var refs []StringRef
	for _, s := range []string{"a", "b", "c", "d", "e", "f"} {
		refs = append(refs, st.Create(s))
	}

	st.ClearUsage()
	st.MarkUsed(refs[1])
	st.MarkUsed(refs[4])
	if swept := st.GC(); swept != 4 {
		t.Errorf("GC() swept %d, want 4", swept)
	}

	if st.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", st.Len())
	}
	for i, ref := range refs {
		_, ok := st.Lookup(ref)
		if want := i == 1 || i == 4; ok != want {
			t.Errorf("Lookup(%d) = %v, want %v", ref, ok, want)
		}
	}

	// swept content is no longer interned
	if ref := st.Intern("a"); ref == refs[0] {
		t.Error("Intern reused a swept reference")
	}
	// surviving content still is
	if ref := st.Intern("b"); ref != refs[1] {
		t.Errorf("Intern(b) = %d, want surviving %d", ref, refs[1])
	}
}

func TestStringTableClearUsage(t *testing.T) {
	st := NewStringTable()
	ref := st.Create("x")
	st.MarkUsed(ref)
	st.ClearUsage()
	if swept := st.GC(); swept != 1 {
		t.Errorf("GC() swept %d after ClearUsage, want 1", swept)
	}
}

func TestStringTableMarkUnknownIgnored(t *testing.T) {
	st := NewStringTable()
	st.MarkUsed(12345)
	if st.Len() != 0 {
		t.Errorf("Len() = %d, want 0", st.Len())
	}
}

func TestStringTableEach(t *testing.T) {
	st := NewStringTable()
	st.Create("one")
	st.Create("two")

	var got []string
	st.Each(func(_ StringRef, s string) bool {
		got = append(got, s)
		return true
	})
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("Each visited %v, want [one two]", got)
	}
}

func TestStringTableGCKeepsInternSlot(t *testing.T) {
	st := NewStringTable()
	first := st.Create("x")
	second := st.Create("x")

	st.ClearUsage()
	st.MarkUsed(second)
	st.GC()

	if _, ok := st.Lookup(first); ok {
		t.Fatal("unmarked reference survived GC")
	}
	if got := st.Intern("x"); got != second {
		t.Errorf("Intern(x) = %d after GC, want surviving %d", got, second)
	}
	if st.Len() != 1 {
		t.Errorf("Len() = %d, want 1", st.Len())
	}
}
