package tree

import (
	"math/rand"
	"testing"
)

func keys(t *Tree[int, string]) []int {
	var out []int
	t.Each(func(k int, _ string) bool {
		out = append(out, k)
		return true
	})
	return out
}

func count(t *Tree[int, string]) int {
	n := 0
	for it := t.First(); it != Nil; it = t.Next(it) {
		n++
	}
	return n
}

func TestInsertAndCount(t *testing.T) {
	tr := New[int, string]()
	for _, k := range []int{2, 4, 9} {
		if _, ok := tr.Insert(k, ""); !ok {
			t.Fatalf("Insert(%d) = false, want true", k)
		}
	}

	if got := count(tr); got != 3 {
		t.Errorf("count = %d, want 3", got)
	}
	if tr.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tr.Len())
	}

	tr.Delete(4)
	if got := count(tr); got != 2 {
		t.Errorf("after delete count = %d, want 2", got)
	}
	if tr.Len() != 2 {
		t.Errorf("after delete Len() = %d, want 2", tr.Len())
	}
}

func TestInsertDuplicate(t *testing.T) {
	tr := New[int, string]()
	first, _ := tr.Insert(7, "a")

	id, ok := tr.Insert(7, "b")
	if ok {
		t.Fatal("duplicate Insert returned true")
	}
	if id != first {
		t.Errorf("duplicate Insert returned node %d, want existing %d", id, first)
	}
	if tr.Value(first) != "a" {
		t.Errorf("value = %q, want a (duplicate must not overwrite)", tr.Value(first))
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tr.Len())
	}
}

func TestFind(t *testing.T) {
	tr := New[int, string]()
	for i := 0; i < 10; i++ {
		tr.Insert(i*3, "")
	}

	for i := 0; i < 10; i++ {
		id, ok := tr.Find(i * 3)
		if !ok {
			t.Fatalf("Find(%d) not found", i*3)
		}
		if tr.Key(id) != i*3 {
			t.Errorf("Key(Find(%d)) = %d", i*3, tr.Key(id))
		}
	}
	if _, ok := tr.Find(4); ok {
		t.Error("Find(4) found a key that was never inserted")
	}
}

func TestDeleteFromTenNodes(t *testing.T) {
	tr := New[int, string]()
	for i := 1; i <= 10; i++ {
		tr.Insert(i, "")
	}

	if !tr.Delete(5) {
		t.Fatal("Delete(5) = false")
	}
	if got := count(tr); got != 9 {
		t.Errorf("count = %d, want 9", got)
	}
	if err := tr.Validate(); err != nil {
		t.Fatal(err)
	}
	if tr.Delete(5) {
		t.Error("second Delete(5) = true, want false")
	}
	if got := count(tr); got != 9 {
		t.Errorf("count after missing delete = %d, want 9", got)
	}
}

func TestSequentialInsertStaysBalanced(t *testing.T) {
	tr := New[int, string]()
	const n = 1 << 10
	for i := 0; i < n; i++ {
		tr.Insert(i, "")
		if err := tr.Validate(); err != nil {
			t.Fatalf("after inserting %d: %v", i, err)
		}
	}

	// an AVL tree of n nodes is at most ~1.44 log2(n) high
	if h := tr.Height(); h > 15 {
		t.Errorf("Height() = %d for %d sequential keys", h, n)
	}
}

func TestRandomInsertDelete(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tr := New[int, string]()
	present := map[int]bool{}

	for step := 0; step < 5000; step++ {
		k := rng.Intn(500)
		if rng.Intn(3) == 0 {
			deleted := tr.Delete(k)
			if deleted != present[k] {
				t.Fatalf("step %d: Delete(%d) = %v, present = %v", step, k, deleted, present[k])
			}
			delete(present, k)
		} else {
			_, inserted := tr.Insert(k, "")
			if inserted == present[k] {
				t.Fatalf("step %d: Insert(%d) = %v, present = %v", step, k, inserted, present[k])
			}
			present[k] = true
		}

		if step%50 == 0 {
			if err := tr.Validate(); err != nil {
				t.Fatalf("step %d: %v", step, err)
			}
		}
	}

	if err := tr.Validate(); err != nil {
		t.Fatal(err)
	}
	if tr.Len() != len(present) || count(tr) != len(present) {
		t.Errorf("Len() = %d, walk = %d, want %d", tr.Len(), count(tr), len(present))
	}
}

func TestInOrderAscending(t *testing.T) {
	tr := New[int, string]()
	for _, k := range []int{50, 20, 70, 10, 30, 60, 80, 25, 35, 5} {
		tr.Insert(k, "")
	}

	got := keys(tr)
	want := []int{5, 10, 20, 25, 30, 35, 50, 60, 70, 80}
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}

func TestDeleteAtWhileIterating(t *testing.T) {
	tr := New[int, string]()
	for i := 0; i < 100; i++ {
		tr.Insert(i, "")
	}

	// drop every odd key in a single pass
	it := tr.First()
	for it != Nil {
		if tr.Key(it)%2 == 1 {
			it = tr.DeleteAt(it)
			continue
		}
		it = tr.Next(it)
	}

	if err := tr.Validate(); err != nil {
		t.Fatal(err)
	}
	got := keys(tr)
	if len(got) != 50 {
		t.Fatalf("len(keys) = %d, want 50", len(got))
	}
	for i, k := range got {
		if k != i*2 {
			t.Fatalf("keys[%d] = %d, want %d", i, k, i*2)
		}
	}
}

func TestDeleteRootOnly(t *testing.T) {
	tr := New[int, string]()
	tr.Insert(1, "")
	tr.Delete(1)

	if tr.Root() != Nil || tr.Len() != 0 || tr.First() != Nil {
		t.Error("tree not empty after deleting its only key")
	}
	if tr.Height() != -1 {
		t.Errorf("Height() = %d, want -1", tr.Height())
	}
}

func TestSetValue(t *testing.T) {
	tr := New[int, string]()
	id, _ := tr.Insert(3, "old")
	tr.SetValue(id, "new")
	if tr.Value(id) != "new" {
		t.Errorf("Value = %q, want new", tr.Value(id))
	}
}

func TestClearReleasesEveryNode(t *testing.T) {
	tr := New[int, string]()
	for i := 0; i < 1000; i++ {
		tr.Insert(i, "")
	}
	tr.Clear()

	if tr.Len() != 0 || count(tr) != 0 {
		t.Errorf("after Clear: Len() = %d, walk = %d", tr.Len(), count(tr))
	}
	if len(tr.nodes) != 1 {
		t.Errorf("arena holds %d slots after Clear, want 1", len(tr.nodes))
	}

	// the tree is reusable
	tr.Insert(1, "")
	if err := tr.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestFreedSlotsAreReused(t *testing.T) {
	tr := New[int, string]()
	for i := 0; i < 8; i++ {
		tr.Insert(i, "")
	}
	slots := len(tr.nodes)

	for i := 0; i < 4; i++ {
		tr.Delete(i)
	}
	for i := 100; i < 104; i++ {
		tr.Insert(i, "")
	}

	if len(tr.nodes) != slots {
		t.Errorf("arena grew to %d slots, want %d", len(tr.nodes), slots)
	}
	if err := tr.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestStringKeys(t *testing.T) {
	tr := New[string, int]()
	for i, s := range []string{"pear", "apple", "fig", "kiwi", "banana"} {
		tr.Insert(s, i)
	}

	var got []string
	tr.Each(func(k string, _ int) bool {
		got = append(got, k)
		return true
	})
	want := []string{"apple", "banana", "fig", "kiwi", "pear"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}
