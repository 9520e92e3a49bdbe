package vm

import "github.com/zeebo/xxh3"

// Hash identifies a variable by name on a NamedStack.
type Hash uint64

// HashName returns the hash used to bind name on a NamedStack.
func HashName(name string) Hash {
	return Hash(xxh3.HashString(name))
}
