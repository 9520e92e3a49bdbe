// Package vm implements the execution core of the ink narrative runtime.
//
// This package contains:
//   - the tagged Value cell
//   - NamedStack: variable bindings and call frames with snapshot support
//   - EvalStack: expression values with snapshots and narrative threads
//   - StringTable: tree-backed runtime strings with mark/sweep collection
//   - Context: one execution context owning all of the above
//
// Stacks never grow. Their storage is handed in at construction and
// exceeding it is fatal.
package vm
