package vm

// ---------------------------------------------------------------------------
// NamedStack: variable bindings and call frames
// ---------------------------------------------------------------------------

// EntryKind says how a NamedStack entry is interpreted.
type EntryKind uint8

const (
	EntryBinding EntryKind = iota // Name is bound to Data
	EntryFrame                    // frame record; Data holds offset and frame type
	EntryDead                     // invalidated by Forget; never matched
)

// Entry is one NamedStack slot.
type Entry struct {
	Kind EntryKind
	Name Hash
	Data Value
}

// NamedStack holds (name, value) bindings separated by frame records, over a
// fixed buffer supplied by the caller. Lookups scan down from the top and stop
// at the nearest frame record, so each frame sees only its own bindings.
type NamedStack struct {
	cursor
	buf []Entry
}

// NewNamedStack creates a stack over buf. Its capacity is len(buf) and never
// changes; name identifies the stack in errors.
func NewNamedStack(name string, buf []Entry) *NamedStack {
	return &NamedStack{
		cursor: newCursor(name, len(buf)),
		buf:    buf,
	}
}

// Cap returns the fixed capacity.
func (s *NamedStack) Cap() int {
	return s.cap
}

// Saved reports whether a snapshot is active.
func (s *NamedStack) Saved() bool {
	return s.saved
}

// find returns the index of the nearest binding of name in the current
// frame, or -1.
func (s *NamedStack) find(name Hash) int {
	for i := s.step(s.pos); i >= 0; i = s.step(i) {
		e := &s.buf[i]
		switch e.Kind {
		case EntryBinding:
			if e.Name == name {
				return i
			}
		case EntryFrame:
			return -1
		}
	}
	return -1
}

// Get returns the value bound to name in the current frame.
func (s *NamedStack) Get(name Hash) (Value, bool) {
	i := s.find(name)
	if i < 0 {
		return None, false
	}
	return s.buf[i].Data, true
}

// Set binds name to v. Without a snapshot an existing binding in the current
// frame is overwritten in place; with one a new binding is always pushed so
// the old value comes back on Restore.
func (s *NamedStack) Set(name Hash, v Value) {
	if !s.saved {
		if i := s.find(name); i >= 0 {
			s.buf[i].Data = v
			return
		}
	}
	s.Add(name, v)
}

// Add pushes a new binding unconditionally.
func (s *NamedStack) Add(name Hash, v Value) {
	i := s.reserve("add")
	s.buf[i] = Entry{Kind: EntryBinding, Name: name, Data: v}
}

// PushFrame pushes a frame record that returns to offset.
func (s *NamedStack) PushFrame(offset uint32, ft FrameType) {
	i := s.reserve("push_frame")
	s.buf[i] = Entry{Kind: EntryFrame, Data: FromFrame(offset, ft)}
}

// PopFrame discards everything down to and including the nearest frame
// record and returns what it stored.
// Panics with ErrStackUnderflow on an empty stack and ErrNoFrame when no
// frame record exists.
func (s *NamedStack) PopFrame() (uint32, FrameType) {
	if s.pos == 0 {
		fatal(s.name, "pop_frame", ErrStackUnderflow)
	}

	i := s.step(s.pos)
	for i >= 0 && s.buf[i].Kind != EntryFrame {
		i = s.step(i)
	}
	if i < 0 {
		fatal(s.name, "pop_frame", ErrNoFrame)
	}

	s.pos = i
	frame := s.buf[i].Data
	return frame.FrameOffset(), frame.FrameType()
}

// HasFrame reports whether a frame record exists below the top.
func (s *NamedStack) HasFrame() bool {
	for i := s.step(s.pos); i >= 0; i = s.step(i) {
		if s.buf[i].Kind == EntryFrame {
			return true
		}
	}
	return false
}

// Len returns the number of logically visible entries, frame records
// included.
func (s *NamedStack) Len() int {
	n := 0
	for i := s.step(s.pos); i >= 0; i = s.step(i) {
		if s.buf[i].Kind != EntryDead {
			n++
		}
	}
	return n
}

// Entries returns the visible entries from bottom to top.
func (s *NamedStack) Entries() []Entry {
	out := make([]Entry, 0, s.pos)
	for i := s.step(s.pos); i >= 0; i = s.step(i) {
		if s.buf[i].Kind != EntryDead {
			out = append(out, s.buf[i])
		}
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// Clear empties the stack and drops any snapshot. Storage is not zeroed.
func (s *NamedStack) Clear() {
	s.reset()
}

// Save snapshots the current state.
func (s *NamedStack) Save() error {
	return s.snapshot()
}

// Restore rolls back to the snapshot, discarding everything since Save.
func (s *NamedStack) Restore() error {
	return s.restore()
}

// Forget commits the current state and drops the snapshot.
func (s *NamedStack) Forget() error {
	lo, hi, err := s.forget()
	if err != nil {
		return err
	}
	for i := lo; i < hi; i++ {
		s.buf[i].Kind = EntryDead
	}
	return nil
}

// MarkStrings marks every string held in the live span, snapshot included.
func (s *NamedStack) MarkStrings(m StringMarker) {
	n := s.markLen()
	for i := 0; i < n; i++ {
		if s.buf[i].Kind != EntryDead {
			s.buf[i].Data.MarkStrings(m)
		}
	}
}
