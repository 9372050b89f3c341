// Package workspace implements a front-only bump allocator used by
// the parser and serializer for per-message temporary storage: body
// staging buffers, output buffers, and the like. A Workspace hands out
// slices from the front of a single backing array, growing it instead
// of allocating per-request, and resets to empty rather than freeing
// each sub-allocation individually — request-scoped bump allocation,
// built on bytebufferpool instead of the Go arena experiment so it
// works with an ordinary toolchain. There is no back-end reservation;
// finalizers registered with OnClear run in reverse order on Clear.
package workspace

import "github.com/valyala/bytebufferpool"

var pool bytebufferpool.Pool

// Workspace is a bump allocator over a single growable byte buffer. It
// is not safe for concurrent use; callers typically Acquire one per
// in-flight message and Release it when done.
type Workspace struct {
	bb   *bytebufferpool.ByteBuffer
	used int // bytes handed out from the front

	// finalizers run in LIFO order on Clear, for values that need
	// cleanup beyond "forget the bytes" (e.g. a filter holding an open
	// compressor).
	finalizers []func()
}

// Acquire returns a Workspace backed by a pooled buffer. Callers must
// call Release when finished.
func Acquire() *Workspace {
	return &Workspace{bb: pool.Get()}
}

// Release returns the Workspace's backing buffer to the pool. The
// Workspace must not be used afterward.
func (w *Workspace) Release() {
	w.Clear()
	pool.Put(w.bb)
	w.bb = nil
}

// Size reports how many bytes are currently handed out.
func (w *Workspace) Size() int { return w.used }

// Capacity reports the backing buffer's current capacity.
func (w *Workspace) Capacity() int { return cap(w.bb.B) }

// Reserve hands out a fresh, zeroed n-byte slice from the front of the
// workspace, growing the backing buffer if needed. The returned slice
// stays valid until the next Clear or Release; it must not be retained
// past that point.
func (w *Workspace) Reserve(n int) []byte {
	if n < 0 {
		panic("workspace: negative size")
	}
	w.growTo(w.used + n)
	s := w.bb.B[w.used : w.used+n]
	for i := range s {
		s[i] = 0
	}
	w.used += n
	return s
}

// ReserveUninitialized behaves like Reserve but skips zeroing, for
// callers about to overwrite every byte themselves (e.g. a read
// destination).
func (w *Workspace) ReserveUninitialized(n int) []byte {
	if n < 0 {
		panic("workspace: negative size")
	}
	w.growTo(w.used + n)
	s := w.bb.B[w.used : w.used+n]
	w.used += n
	return s
}

// TryReserve behaves like Reserve but never grows the backing buffer;
// it reports false if n bytes aren't already available.
func (w *Workspace) TryReserve(n int) (s []byte, ok bool) {
	if n < 0 {
		panic("workspace: negative size")
	}
	if w.used+n > cap(w.bb.B) {
		return nil, false
	}
	if w.used+n > len(w.bb.B) {
		w.bb.B = w.bb.B[:w.used+n]
	}
	s = w.bb.B[w.used : w.used+n]
	for i := range s {
		s[i] = 0
	}
	w.used += n
	return s, true
}

func (w *Workspace) growTo(need int) {
	if need <= cap(w.bb.B) {
		if need > len(w.bb.B) {
			w.bb.B = w.bb.B[:need]
		}
		return
	}
	newCap := cap(w.bb.B)
	if newCap == 0 {
		newCap = 256
	}
	for newCap < need {
		newCap *= 2
	}
	grown := make([]byte, need, newCap)
	copy(grown, w.bb.B[:w.used])
	w.bb.B = grown
}

// OnClear registers fn to run the next time Clear (or Release, which
// calls Clear) runs. Finalizers run most-recently-registered first, so
// a value holding a reference to an earlier allocation is torn down
// before that allocation's own finalizer.
func (w *Workspace) OnClear(fn func()) {
	w.finalizers = append(w.finalizers, fn)
}

// Clear runs any registered finalizers and resets the workspace to
// empty, retaining the backing buffer's capacity for reuse.
func (w *Workspace) Clear() {
	for i := len(w.finalizers) - 1; i >= 0; i-- {
		w.finalizers[i]()
	}
	w.finalizers = w.finalizers[:0]
	w.used = 0
	w.bb.B = w.bb.B[:0]
}
