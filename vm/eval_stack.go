package vm

// ---------------------------------------------------------------------------
// EvalStack: expression values and narrative threads
// ---------------------------------------------------------------------------

// ThreadMark is a position on an EvalStack returned by ThreadSave and
// consumed by ThreadCollapse.
type ThreadMark int

// EvalStack is the value stack used while evaluating expressions. It shares
// NamedStack's snapshot behaviour and additionally supports narrative
// threads: a fork copies the visible values above a ThreadStart marker so
// the thread can consume them without disturbing the caller's copy.
//
// Entries nullified by Forget are left as None and skipped by Pop, Top and
// IsEmpty.
type EvalStack struct {
	cursor
	buf []Value
}

// NewEvalStack creates a stack over buf. Its capacity is len(buf) and never
// changes; name identifies the stack in errors.
func NewEvalStack(name string, buf []Value) *EvalStack {
	return &EvalStack{
		cursor: newCursor(name, len(buf)),
		buf:    buf,
	}
}

// Cap returns the fixed capacity.
func (s *EvalStack) Cap() int {
	return s.cap
}

// Saved reports whether a snapshot is active.
func (s *EvalStack) Saved() bool {
	return s.saved
}

// Push pushes v.
func (s *EvalStack) Push(v Value) {
	i := s.reserve("push")
	s.buf[i] = v
}

// visible returns one past the topmost non-None entry, skipping the hole the
// same way Values does.
func (s *EvalStack) visible() int {
	i := s.step(s.pos)
	for i >= 0 && s.buf[i].IsNone() {
		i = s.step(i)
	}
	return i + 1
}

// Pop removes and returns the top value.
// Panics with ErrStackUnderflow when nothing is left.
func (s *EvalStack) Pop() Value {
	p := s.visible()
	if p == 0 {
		fatal(s.name, "pop", ErrStackUnderflow)
	}
	s.pos = p - 1
	return s.buf[s.pos]
}

// Top returns the top value without removing it.
// Panics with ErrStackUnderflow when the stack is empty.
func (s *EvalStack) Top() Value {
	p := s.visible()
	if p == 0 {
		fatal(s.name, "top", ErrStackUnderflow)
	}
	return s.buf[p-1]
}

// IsEmpty reports whether there is nothing to pop in the current thread:
// either the stack is empty or its top is a ThreadStart marker.
func (s *EvalStack) IsEmpty() bool {
	p := s.visible()
	return p == 0 || s.buf[p-1].IsThreadStart()
}

// Len returns the number of logically visible values, markers included.
func (s *EvalStack) Len() int {
	n := 0
	for i := s.step(s.pos); i >= 0; i = s.step(i) {
		if !s.buf[i].IsNone() {
			n++
		}
	}
	return n
}

// Values returns the visible values from bottom to top.
func (s *EvalStack) Values() []Value {
	out := make([]Value, 0, s.pos)
	for i := s.step(s.pos); i >= 0; i = s.step(i) {
		if !s.buf[i].IsNone() {
			out = append(out, s.buf[i])
		}
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// Clear empties the stack and drops any snapshot. Storage is not zeroed.
func (s *EvalStack) Clear() {
	s.reset()
}

// Save snapshots the current state.
func (s *EvalStack) Save() error {
	return s.snapshot()
}

// Restore rolls back to the snapshot, discarding everything since Save.
func (s *EvalStack) Restore() error {
	return s.restore()
}

// Forget commits the current state and drops the snapshot.
func (s *EvalStack) Forget() error {
	lo, hi, err := s.forget()
	if err != nil {
		return err
	}
	for i := lo; i < hi; i++ {
		s.buf[i] = None
	}
	return nil
}

// MarkStrings marks every string held in the live span, snapshot included.
func (s *EvalStack) MarkStrings(m StringMarker) {
	n := s.markLen()
	for i := 0; i < n; i++ {
		s.buf[i].MarkStrings(m)
	}
}

// ---------------------------------------------------------------------------
// Threads
// ---------------------------------------------------------------------------

// walkThread visits, in ascending index order, every entry of the thread
// that ends at index i except None and ThreadEnd. The walk stops at a
// ThreadStart marker and
// continues below the resume index of any ThreadCallback it meets, so
// segments already copied by an earlier fork are not visited twice.
func (s *EvalStack) walkThread(i int, visit func(int)) {
	for i >= 0 {
		v := s.buf[i]
		switch v.Kind() {
		case KindThreadStart:
			return
		case KindThreadCallback:
			i = v.ResumeIndex() - 1
			continue
		}

		s.walkThread(i-1, visit)
		if !v.IsNone() && !v.IsThreadEnd() {
			visit(i)
		}
		return
	}
}

// ThreadFork starts a new thread: it pushes a ThreadStart marker followed by
// a copy of the values visible to the current thread. ThreadEnd markers left
// by finished threads are not copied.
func (s *EvalStack) ThreadFork() error {
	if err := s.threading("thread_fork"); err != nil {
		return err
	}

	base := s.pos
	s.Push(ThreadStart)
	s.walkThread(base-1, func(i int) {
		s.Push(s.buf[i])
	})
	return nil
}

// threadStart returns the index of the most recent ThreadStart marker,
// following ThreadCallback redirects, or 0.
func (s *EvalStack) threadStart() int {
	for i := s.pos - 1; i > 0; i-- {
		v := s.buf[i]
		if v.IsThreadStart() {
			return i
		}
		if v.IsThreadCallback() {
			i = v.ResumeIndex()
		}
	}
	return 0
}

// ThreadResume abandons the current thread, dropping everything it pushed
// including its ThreadStart marker.
func (s *EvalStack) ThreadResume() error {
	if err := s.threading("thread_resume"); err != nil {
		return err
	}
	s.pos = s.threadStart()
	return nil
}

// ThreadSave returns the current position for a later ThreadCollapse.
func (s *EvalStack) ThreadSave() (ThreadMark, error) {
	if err := s.threading("thread_save"); err != nil {
		return 0, err
	}
	return ThreadMark(s.pos), nil
}

// ThreadCollapse commits the thread content that was visible at mark: it is
// compacted to the bottom of the stack, dropping thread markers and None
// entries, and becomes the whole stack. A zero mark clears the stack.
func (s *EvalStack) ThreadCollapse(mark ThreadMark) error {
	if err := s.threading("thread_collapse"); err != nil {
		return err
	}
	if mark == 0 {
		s.pos = 0
		return nil
	}

	// Sources are visited in ascending order and the destination never
	// passes the source, so copying in place is safe.
	dst := 0
	s.walkThread(int(mark)-1, func(i int) {
		s.buf[dst] = s.buf[i]
		dst++
	})
	s.pos = dst
	return nil
}
