// Package tree implements an ordered associative container balanced as an
// AVL tree.
//
// Nodes live in an arena and are addressed by NodeID. Parent links are plain
// indices, so there is no ownership chain to unwind: Clear resets the arena
// in one pass regardless of shape.
package tree

import (
	"cmp"
	"fmt"
)

// NodeID addresses a node in a Tree's arena. The zero NodeID is nil.
type NodeID int32

// Nil is the absent node.
const Nil NodeID = 0

type node[K cmp.Ordered, V any] struct {
	key     K
	value   V
	left    NodeID
	right   NodeID
	parent  NodeID
	height  int
	balance int
	live    bool
}

// Tree is an AVL tree mapping keys to values. The zero value is not usable;
// call New.
type Tree[K cmp.Ordered, V any] struct {
	nodes []node[K, V] // slot 0 is reserved for Nil
	free  []NodeID
	root  NodeID
	count int
}

// New creates an empty tree.
func New[K cmp.Ordered, V any]() *Tree[K, V] {
	return &Tree[K, V]{
		nodes: make([]node[K, V], 1, 16),
	}
}

// Len returns the number of live nodes.
func (t *Tree[K, V]) Len() int {
	return t.count
}

// Root returns the root node, or Nil for an empty tree.
func (t *Tree[K, V]) Root() NodeID {
	return t.root
}

// Height returns the height of the whole tree; -1 when empty.
func (t *Tree[K, V]) Height() int {
	return t.height(t.root)
}

// Key returns the key stored at id.
func (t *Tree[K, V]) Key(id NodeID) K {
	return t.at(id).key
}

// Value returns the value stored at id.
func (t *Tree[K, V]) Value(id NodeID) V {
	return t.at(id).value
}

// SetValue replaces the value stored at id.
func (t *Tree[K, V]) SetValue(id NodeID, v V) {
	t.at(id).value = v
}

func (t *Tree[K, V]) at(id NodeID) *node[K, V] {
	if id == Nil || int(id) >= len(t.nodes) || !t.nodes[id].live {
		panic(fmt.Sprintf("tree: invalid node %d", id))
	}
	return &t.nodes[id]
}

func (t *Tree[K, V]) alloc(key K, value V, parent NodeID) NodeID {
	n := node[K, V]{key: key, value: value, parent: parent, live: true}
	if k := len(t.free); k > 0 {
		id := t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[id] = n
		return id
	}
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree[K, V]) release(id NodeID) {
	t.nodes[id] = node[K, V]{}
	t.free = append(t.free, id)
}

// ---------------------------------------------------------------------------
// Lookup and iteration
// ---------------------------------------------------------------------------

// Find returns the node holding key.
func (t *Tree[K, V]) Find(key K) (NodeID, bool) {
	n := t.root
	for n != Nil {
		nd := &t.nodes[n]
		switch {
		case key == nd.key:
			return n, true
		case key < nd.key:
			n = nd.left
		default:
			n = nd.right
		}
	}
	return Nil, false
}

// First returns the node with the smallest key, or Nil.
func (t *Tree[K, V]) First() NodeID {
	if t.root == Nil {
		return Nil
	}
	return t.leftmost(t.root)
}

// Next returns the in-order successor of id, or Nil at the end.
func (t *Tree[K, V]) Next(id NodeID) NodeID {
	if id == Nil {
		return Nil
	}
	nd := t.at(id)
	if nd.right != Nil {
		return t.leftmost(nd.right)
	}

	// climb until we find an ancestor larger than us
	key := nd.key
	p := nd.parent
	for p != Nil && t.nodes[p].key < key {
		p = t.nodes[p].parent
	}
	return p
}

// Each calls fn for every node in ascending key order until fn returns false.
func (t *Tree[K, V]) Each(fn func(key K, value V) bool) {
	for n := t.First(); n != Nil; n = t.Next(n) {
		if !fn(t.nodes[n].key, t.nodes[n].value) {
			return
		}
	}
}

func (t *Tree[K, V]) leftmost(n NodeID) NodeID {
	for t.nodes[n].left != Nil {
		n = t.nodes[n].left
	}
	return n
}

// ---------------------------------------------------------------------------
// Mutation
// ---------------------------------------------------------------------------

// Insert adds key with value. It returns false, leaving the tree unchanged,
// when key is already present; the returned NodeID is then the existing node.
func (t *Tree[K, V]) Insert(key K, value V) (NodeID, bool) {
	if t.root == Nil {
		t.root = t.alloc(key, value, Nil)
		t.count++
		return t.root, true
	}

	n := t.root
	for {
		nd := &t.nodes[n]
		if key == nd.key {
			return n, false
		}

		goLeft := key < nd.key
		next := nd.right
		if goLeft {
			next = nd.left
		}
		if next != Nil {
			n = next
			continue
		}

		id := t.alloc(key, value, n)
		if goLeft {
			t.nodes[n].left = id
		} else {
			t.nodes[n].right = id
		}
		t.count++
		t.rebalance(n)
		return id, true
	}
}

// Delete removes key. Deleting an absent key is a no-op that returns false.
func (t *Tree[K, V]) Delete(key K) bool {
	id, ok := t.Find(key)
	if !ok {
		return false
	}
	t.DeleteAt(id)
	return true
}

// DeleteAt removes the node id and returns the node that now holds the key
// that followed it, so callers can keep iterating while deleting.
func (t *Tree[K, V]) DeleteAt(id NodeID) NodeID {
	nd := t.at(id)

	target := id
	var cont NodeID
	if nd.left != Nil && nd.right != Nil {
		// Two children: move the successor's content up and splice the
		// successor out instead. id then holds the following key.
		target = t.leftmost(nd.right)
		succ := &t.nodes[target]
		nd.key, nd.value = succ.key, succ.value
		cont = id
	} else {
		cont = t.Next(id)
	}

	tn := &t.nodes[target]
	child := tn.left
	if child == Nil {
		child = tn.right
	}
	parent := tn.parent

	if child != Nil {
		t.nodes[child].parent = parent
	}
	t.replaceChild(parent, target, child)
	t.release(target)
	t.count--

	if parent != Nil {
		t.rebalance(parent)
	}
	return cont
}

// Clear removes every node.
func (t *Tree[K, V]) Clear() {
	clear(t.nodes)
	t.nodes = t.nodes[:1]
	t.free = t.free[:0]
	t.root = Nil
	t.count = 0
}

// replaceChild points parent's link to old at repl instead. A Nil parent
// means old was the root.
func (t *Tree[K, V]) replaceChild(parent, old, repl NodeID) {
	if parent == Nil {
		t.root = repl
		return
	}
	p := &t.nodes[parent]
	if p.left == old {
		p.left = repl
	} else {
		p.right = repl
	}
}

// ---------------------------------------------------------------------------
// Balancing
// ---------------------------------------------------------------------------

func (t *Tree[K, V]) height(n NodeID) int {
	if n == Nil {
		return -1
	}
	return t.nodes[n].height
}

func (t *Tree[K, V]) update(n NodeID) {
	nd := &t.nodes[n]
	l, r := t.height(nd.left), t.height(nd.right)
	nd.height = 1 + max(l, r)
	nd.balance = r - l
}

// rebalance fixes heights from n up to the root, rotating where a node's
// balance reaches ±2.
func (t *Tree[K, V]) rebalance(n NodeID) {
	for n != Nil {
		t.update(n)
		nd := &t.nodes[n]

		switch nd.balance {
		case -2:
			l := &t.nodes[nd.left]
			if t.height(l.left) >= t.height(l.right) {
				n = t.rotateRight(n)
			} else {
				n = t.rotateLeftThenRight(n)
			}
		case 2:
			r := &t.nodes[nd.right]
			if t.height(r.right) >= t.height(r.left) {
				n = t.rotateLeft(n)
			} else {
				n = t.rotateRightThenLeft(n)
			}
		}

		if t.nodes[n].parent == Nil {
			t.root = n
		}
		n = t.nodes[n].parent
	}
}

func (t *Tree[K, V]) rotateLeft(a NodeID) NodeID {
	an := &t.nodes[a]
	b := an.right
	bn := &t.nodes[b]

	bn.parent = an.parent
	an.right = bn.left
	if an.right != Nil {
		t.nodes[an.right].parent = a
	}
	bn.left = a
	t.replaceChild(bn.parent, a, b)
	an.parent = b

	t.update(a)
	t.update(b)
	return b
}

func (t *Tree[K, V]) rotateRight(a NodeID) NodeID {
	an := &t.nodes[a]
	b := an.left
	bn := &t.nodes[b]

	bn.parent = an.parent
	an.left = bn.right
	if an.left != Nil {
		t.nodes[an.left].parent = a
	}
	bn.right = a
	t.replaceChild(bn.parent, a, b)
	an.parent = b

	t.update(a)
	t.update(b)
	return b
}

func (t *Tree[K, V]) rotateLeftThenRight(n NodeID) NodeID {
	t.rotateLeft(t.nodes[n].left)
	return t.rotateRight(n)
}

func (t *Tree[K, V]) rotateRightThenLeft(n NodeID) NodeID {
	t.rotateRight(t.nodes[n].right)
	return t.rotateLeft(n)
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks ordering, parent links, stored heights and the AVL balance
// bound for every node. It returns the first violation found.
func (t *Tree[K, V]) Validate() error {
	if t.root != Nil && t.nodes[t.root].parent != Nil {
		return fmt.Errorf("tree: root %d has parent %d", t.root, t.nodes[t.root].parent)
	}

	seen := 0
	stack := []NodeID{}
	if t.root != Nil {
		stack = append(stack, t.root)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nd := &t.nodes[n]
		seen++

		l, r := t.height(nd.left), t.height(nd.right)
		if nd.height != 1+max(l, r) {
			return fmt.Errorf("tree: node %v height %d, want %d", nd.key, nd.height, 1+max(l, r))
		}
		if nd.balance != r-l {
			return fmt.Errorf("tree: node %v balance %d, want %d", nd.key, nd.balance, r-l)
		}
		if nd.balance < -1 || nd.balance > 1 {
			return fmt.Errorf("tree: node %v out of balance (%d)", nd.key, nd.balance)
		}
		for _, c := range []NodeID{nd.left, nd.right} {
			if c == Nil {
				continue
			}
			if t.nodes[c].parent != n {
				return fmt.Errorf("tree: node %v has wrong parent link", t.nodes[c].key)
			}
			stack = append(stack, c)
		}
		if nd.left != Nil && !(t.nodes[nd.left].key < nd.key) {
			return fmt.Errorf("tree: left child %v not below %v", t.nodes[nd.left].key, nd.key)
		}
		if nd.right != Nil && !(nd.key < t.nodes[nd.right].key) {
			return fmt.Errorf("tree: right child %v not above %v", t.nodes[nd.right].key, nd.key)
		}
	}
	if seen != t.count {
		return fmt.Errorf("tree: reached %d nodes, count is %d", seen, t.count)
	}

	// local parent/child ordering is not enough; check the full in-order walk
	first := true
	var prev K
	for n := t.First(); n != Nil; n = t.Next(n) {
		if !first && !(prev < t.nodes[n].key) {
			return fmt.Errorf("tree: in-order walk not ascending at %v", t.nodes[n].key)
		}
		prev, first = t.nodes[n].key, false
	}
	return nil
}
