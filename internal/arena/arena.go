// Package arena implements a chained-chunk bump allocator used for the
// lifetime of a single compilation unit: AST nodes, types, symbols, and
// interned strings are all carved from it and released together at the
// end of compilation, mirroring the teacher's struct-per-node allocation
// style but with an explicit, inspectable lifetime boundary.
package arena

import "unsafe"

const defaultChunkSize = 16 << 20 // 16 MiB, per spec.md 4.A

// Arena is a bump allocator. The zero value is not usable; use New.
type Arena struct {
	chunkSize int
	chunks    [][]byte
	cur       []byte // remaining bytes of the current chunk
	used      int64  // total bytes handed out, for diagnostics/tests
}

// New creates an Arena whose chunks default to 16 MiB. A different
// chunkSize (e.g. for tests) may be supplied; it is still grown per
// request if a single allocation exceeds it.
func New(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	a := &Arena{chunkSize: chunkSize}
	a.newChunk(chunkSize)
	return a
}

func (a *Arena) newChunk(size int) {
	chunk := make([]byte, size)
	a.chunks = append(a.chunks, chunk)
	a.cur = chunk
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// Alloc returns n zero-initialized bytes, rounded up to an 8-byte
// boundary per spec.md 4.A. A request larger than the chunk size gets
// its own dedicated chunk. The returned slice's capacity is exactly the
// aligned size, so a second Alloc can never observe bytes donated to a
// prior one (the disjointness half of the soundness invariant in
// spec.md 8.1); zeroing on every call gives the other half.
func (a *Arena) Alloc(n int) []byte {
	size := alignUp(n, 8)
	if size > len(a.cur) {
		chunkSize := a.chunkSize
		if size > chunkSize {
			chunkSize = size
		}
		a.newChunk(chunkSize)
	}
	out := a.cur[:n:size]
	a.cur = a.cur[size:]
	a.used += int64(n)
	for i := range out {
		out[i] = 0
	}
	return out
}

// Used reports the number of bytes handed out so far (for tests and
// the soundness property in spec.md 8.1).
func (a *Arena) Used() int64 { return a.used }

// FreeAll drops all chunk references. Go has no manual free; releasing
// the arena means letting the garbage collector reclaim the chunks once
// nothing else references values allocated from them, which is the
// correct translation of the teacher's chunk-walk-and-free for a
// garbage-collected host language.
func (a *Arena) FreeAll() {
	a.chunks = nil
	a.cur = nil
}

// New0 allocates a zero-valued T from a and returns a pointer into the
// arena's backing storage. Used through Make by internal/parser and
// internal/sema for node/type/symbol construction so that the whole
// AST+type+symbol graph of a compilation unit shares one arena
// lifetime, per spec.md's "Lifecycles" design-terms section.
func New0[T any](a *Arena) *T {
	var zero T
	buf := a.Alloc(int(unsafe.Sizeof(zero)))
	return (*T)(unsafe.Pointer(&buf[0]))
}

// NewSlice allocates a slice of n zero-valued T from a.
func NewSlice[T any](a *Arena, n int) []T {
	if n == 0 {
		return nil
	}
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	buf := a.Alloc(elemSize * n)
	return unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), n)
}

// Make allocates a T from a and copies v into it, returning the
// arena-backed pointer. This is the usual way internal/parser and
// internal/sema construct AST nodes, types and symbols: build the
// value with an ordinary composite literal, then hand it to Make
// instead of taking its address, so the node lives in the arena
// instead of on the Go heap.
func Make[T any](a *Arena, v T) *T {
	p := New0[T](a)
	*p = v
	return p
}

// String copies s into the arena and returns a string backed by the
// copy, interning the bytes the way spec.md's Slice_Duplicate does for
// string-slice values. Go strings are immutable, so this costs one copy
// into arena-owned memory and one conversion; it still guarantees the
// returned string's backing bytes live exactly as long as the arena.
func (a *Arena) String(s string) string {
	if s == "" {
		return ""
	}
	buf := a.Alloc(len(s))
	copy(buf, s)
	return unsafe.String(&buf[0], len(buf))
}
