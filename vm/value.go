package vm

import (
	"fmt"
	"math"
)

// Kind discriminates the payload carried by a Value.
type Kind uint8

const (
	KindNone           Kind = iota // empty slot; nullified stack entries
	KindNull                       // the story-level null value
	KindBool                       // boolean
	KindInt                        // signed integer
	KindFloat                      // IEEE 754 double
	KindString                     // reference into a StringTable
	KindDivert                     // divert target offset
	KindTunnelFrame                // frame record for a tunnel call
	KindFunctionFrame              // frame record for a function call
	KindThreadStart                // marks the base of a forked thread
	KindThreadEnd                  // marks the end of a thread's output
	KindThreadCallback             // resume point of an earlier fork
)

var kindNames = [...]string{
	KindNone:           "none",
	KindNull:           "null",
	KindBool:           "bool",
	KindInt:            "int",
	KindFloat:          "float",
	KindString:         "string",
	KindDivert:         "divert",
	KindTunnelFrame:    "tunnel_frame",
	KindFunctionFrame:  "function_frame",
	KindThreadStart:    "thread_start",
	KindThreadEnd:      "thread_end",
	KindThreadCallback: "thread_callback",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// FrameType distinguishes tunnel frames from function frames.
type FrameType uint8

const (
	FrameTunnel FrameType = iota
	FrameFunction
)

func (f FrameType) String() string {
	if f == FrameTunnel {
		return "tunnel"
	}
	return "function"
}

// StringRef identifies a string owned by a StringTable.
type StringRef uint32

// StringMarker receives the strings reachable from a value during garbage
// collection. *StringTable implements it.
type StringMarker interface {
	MarkUsed(ref StringRef)
}

// Value is the runtime cell stored on both stacks.
//
// Values are small, comparable, and copied by value. The payload is
// interpreted according to kind:
//   - Bool: 0 or 1
//   - Int: int64 bits
//   - Float: float64 bits
//   - String: StringRef
//   - Divert, frames: return offset (frames also keep the FrameType)
//   - ThreadCallback: resume index into the evaluation stack
type Value struct {
	kind    Kind
	payload uint64
}

// Pre-defined payload-free values
var (
	None        = Value{kind: KindNone}
	Null        = Value{kind: KindNull}
	ThreadStart = Value{kind: KindThreadStart}
	ThreadEnd   = Value{kind: KindThreadEnd}
)

// Kind returns the discriminant of v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNone returns true for nullified/empty cells.
func (v Value) IsNone() bool {
	return v.kind == KindNone
}

// IsFrame returns true for tunnel and function frame records.
func (v Value) IsFrame() bool {
	return v.kind == KindTunnelFrame || v.kind == KindFunctionFrame
}

// IsThreadStart returns true for the thread base marker.
func (v Value) IsThreadStart() bool {
	return v.kind == KindThreadStart
}

// IsThreadEnd returns true for the marker a finished thread leaves behind.
func (v Value) IsThreadEnd() bool {
	return v.kind == KindThreadEnd
}

// IsThreadCallback returns true for a thread resume marker.
func (v Value) IsThreadCallback() bool {
	return v.kind == KindThreadCallback
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// FromBool creates a Value from a bool.
func FromBool(b bool) Value {
	if b {
		return Value{kind: KindBool, payload: 1}
	}
	return Value{kind: KindBool}
}

// FromInt creates a Value from an int64.
func FromInt(n int64) Value {
	return Value{kind: KindInt, payload: uint64(n)}
}

// FromFloat creates a Value from a float64.
func FromFloat(f float64) Value {
	return Value{kind: KindFloat, payload: math.Float64bits(f)}
}

// FromString creates a Value referring to a table-owned string.
func FromString(ref StringRef) Value {
	return Value{kind: KindString, payload: uint64(ref)}
}

// FromDivert creates a divert target.
func FromDivert(offset uint32) Value {
	return Value{kind: KindDivert, payload: uint64(offset)}
}

// FromFrame creates a frame record returning to offset.
func FromFrame(offset uint32, ft FrameType) Value {
	if ft == FrameTunnel {
		return Value{kind: KindTunnelFrame, payload: uint64(offset)}
	}
	return Value{kind: KindFunctionFrame, payload: uint64(offset)}
}

// FromThreadCallback creates a marker telling thread scans to continue
// below resumeIndex.
func FromThreadCallback(resumeIndex int) Value {
	return Value{kind: KindThreadCallback, payload: uint64(resumeIndex)}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Bool returns v as a bool.
// Panics if v is not a boolean.
func (v Value) Bool() bool {
	if v.kind != KindBool {
		panic("Value.Bool: not a boolean")
	}
	return v.payload != 0
}

// Int returns v as an int64.
// Panics if v is not an int.
func (v Value) Int() int64 {
	if v.kind != KindInt {
		panic("Value.Int: not an int")
	}
	return int64(v.payload)
}

// Float returns v as a float64.
// Panics if v is not a float.
func (v Value) Float() float64 {
	if v.kind != KindFloat {
		panic("Value.Float: not a float")
	}
	return math.Float64frombits(v.payload)
}

// StringRef returns the string reference held by v.
// Panics if v is not a string.
func (v Value) StringRef() StringRef {
	if v.kind != KindString {
		panic("Value.StringRef: not a string")
	}
	return StringRef(v.payload)
}

// Divert returns the target offset of a divert.
// Panics if v is not a divert.
func (v Value) Divert() uint32 {
	if v.kind != KindDivert {
		panic("Value.Divert: not a divert")
	}
	return uint32(v.payload)
}

// FrameOffset returns the return offset stored in a frame record.
// Panics if v is not a frame.
func (v Value) FrameOffset() uint32 {
	if !v.IsFrame() {
		panic("Value.FrameOffset: not a frame")
	}
	return uint32(v.payload)
}

// FrameType returns whether a frame record is a tunnel or function frame.
// Panics if v is not a frame.
func (v Value) FrameType() FrameType {
	switch v.kind {
	case KindTunnelFrame:
		return FrameTunnel
	case KindFunctionFrame:
		return FrameFunction
	default:
		panic("Value.FrameType: not a frame")
	}
}

// ResumeIndex returns the stack index stored in a thread callback.
// Panics if v is not a thread callback.
func (v Value) ResumeIndex() int {
	if v.kind != KindThreadCallback {
		panic("Value.ResumeIndex: not a thread callback")
	}
	return int(v.payload)
}

// MarkStrings reports any string reachable from v to m.
func (v Value) MarkStrings(m StringMarker) {
	if v.kind == KindString {
		m.MarkUsed(StringRef(v.payload))
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("%t", v.payload != 0)
	case KindInt:
		return fmt.Sprintf("%d", int64(v.payload))
	case KindFloat:
		return fmt.Sprintf("%g", math.Float64frombits(v.payload))
	case KindString:
		return fmt.Sprintf("string#%d", v.payload)
	case KindDivert:
		return fmt.Sprintf("-> %d", v.payload)
	case KindTunnelFrame, KindFunctionFrame, KindThreadCallback:
		return fmt.Sprintf("%s(%d)", v.kind, v.payload)
	default:
		return v.kind.String()
	}
}
