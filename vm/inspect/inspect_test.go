package inspect

import (
	"bytes"
	"testing"

	"github.com/chazu/inkcore/vm"
)

func storyContext() *vm.Context {
	c := vm.NewContext(vm.Options{StackSize: 8, CallStackSize: 8, GlobalsSize: 8})
	c.Globals.Set(vm.HashName("mood"), c.Strings.Value("calm"))
	c.Calls.PushFrame(12, vm.FrameTunnel)
	c.Calls.Set(vm.HashName("n"), vm.FromInt(3))
	c.Eval.Push(vm.FromInt(1))
	c.Eval.Push(c.Strings.Value("brook"))
	return c
}

func TestCapture(t *testing.T) {
	c := storyContext()
	c.Eval.Save()
	s := Capture(c)

	if s.ContextID != c.ID {
		t.Errorf("ContextID = %q, want %q", s.ContextID, c.ID)
	}
	if len(s.Globals.Entries) != 1 || s.Globals.Entries[0].Value.Text != "calm" {
		t.Errorf("globals = %+v", s.Globals.Entries)
	}
	if s.Globals.Entries[0].Name != uint64(vm.HashName("mood")) {
		t.Error("global name hash not recorded")
	}

	calls := s.Calls.Entries
	if len(calls) != 2 || !calls[0].Frame || calls[0].Value.Kind != "tunnel_frame" {
		t.Fatalf("calls = %+v, want frame then binding", calls)
	}
	if calls[1].Value.Text != "3" {
		t.Errorf("n = %q, want 3", calls[1].Value.Text)
	}

	if !s.Eval.Saved || s.Eval.Cap != 8 {
		t.Errorf("eval state = %+v", s.Eval)
	}
	if len(s.Eval.Entries) != 2 || s.Eval.Entries[1].Value.Text != "brook" {
		t.Errorf("eval = %+v", s.Eval.Entries)
	}
	if len(s.Strings) != 2 {
		t.Errorf("strings = %+v, want 2", s.Strings)
	}
}

func TestSnapshotCBOR(t *testing.T) {
	s := Capture(storyContext())

	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.ContextID != s.ContextID {
		t.Error("ContextID mismatch")
	}
	if len(got.Calls.Entries) != 2 || !got.Calls.Entries[0].Frame {
		t.Errorf("calls = %+v", got.Calls.Entries)
	}
	if len(got.Strings) != len(s.Strings) || got.Strings[0] != s.Strings[0] {
		t.Errorf("strings = %+v, want %+v", got.Strings, s.Strings)
	}

	// canonical encoding is deterministic
	again, _ := Marshal(got)
	if !bytes.Equal(data, again) {
		t.Error("re-encoding produced different bytes")
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte{0xff, 0x00}); err == nil {
		t.Error("Unmarshal accepted garbage")
	}
}
