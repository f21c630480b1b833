// Package nativebuf manages pixel buffers that cross the boundary to a
// native recognition engine. The contract is strict: one allocation, exactly
// one release on every path, no use after release, explicit ownership at all
// times. Release is an explicit call; a finalizer acts only as a safety net
// against leaked handles and must not be relied upon.
package nativebuf

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/wudi/docprep/raster"
)

var (
	// ErrAllocation reports that the native allocator could not provide
	// the requested memory.
	ErrAllocation = errors.New("nativebuf: allocation failed")
	// ErrReleased reports a second Release (or a Transfer after Release)
	// on the same handle.
	ErrReleased = errors.New("nativebuf: buffer already released")
)

const (
	stateOwned int32 = iota
	stateReleased
)

// outstanding counts live allocations. Diagnostic hook for leak tests.
var outstanding atomic.Int64

// Outstanding returns the number of buffers allocated but not yet released.
func Outstanding() int64 { return outstanding.Load() }

// Buffer is an owning handle to one native allocation. A Buffer that loses
// ownership (Release or Transfer) is permanently invalid; accessing its bytes
// afterwards is a programmer error and panics rather than corrupting memory.
type Buffer struct {
	data  []byte
	free  func([]byte)
	state atomic.Int32
}

// Alloc acquires a native buffer of n bytes, zero-filled.
func Alloc(n int) (*Buffer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrAllocation, n)
	}
	data, free, err := allocBytes(n)
	if err != nil {
		return nil, err
	}
	b := &Buffer{data: data, free: free}
	outstanding.Add(1)
	runtime.SetFinalizer(b, (*Buffer).finalize)
	return b, nil
}

// FromRaster copies img's pixels into a freshly allocated native buffer with
// packed rows (no stride padding), the layout recognition engines expect.
func FromRaster(img *raster.Image) (*Buffer, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	rowBytes := img.Width * img.Format.BytesPerPixel()
	b, err := Alloc(rowBytes * img.Height)
	if err != nil {
		return nil, err
	}
	for y := 0; y < img.Height; y++ {
		copy(b.data[y*rowBytes:], img.Row(y))
	}
	return b, nil
}

// Bytes returns the buffer contents. It panics after Release or Transfer;
// use-after-release is a bug in the caller, not a runtime condition.
func (b *Buffer) Bytes() []byte {
	if b.state.Load() != stateOwned {
		panic("nativebuf: use after release")
	}
	return b.data
}

// Len returns the allocation size, or 0 once released.
func (b *Buffer) Len() int {
	if b.state.Load() != stateOwned {
		return 0
	}
	return len(b.data)
}

// Release frees the native allocation. Exactly one Release must happen per
// allocation; the second call returns ErrReleased and frees nothing.
func (b *Buffer) Release() error {
	if !b.state.CompareAndSwap(stateOwned, stateReleased) {
		return ErrReleased
	}
	runtime.SetFinalizer(b, nil)
	b.free(b.data)
	b.data = nil
	outstanding.Add(-1)
	return nil
}

// Borrow returns a non-owning view. Views carry no release capability; the
// buffer must outlive every view handed out.
func (b *Buffer) Borrow() View {
	return View{buf: b}
}

// Transfer moves ownership to a new handle and invalidates b without freeing
// the memory. The receiver of the new handle inherits the release obligation.
func (b *Buffer) Transfer() (*Buffer, error) {
	if !b.state.CompareAndSwap(stateOwned, stateReleased) {
		return nil, ErrReleased
	}
	runtime.SetFinalizer(b, nil)
	next := &Buffer{data: b.data, free: b.free}
	b.data = nil
	runtime.SetFinalizer(next, (*Buffer).finalize)
	return next, nil
}

// finalize is the safety net for handles dropped without Release. It frees
// the allocation so a forgotten handle degrades to a delayed free instead of
// a leak.
func (b *Buffer) finalize() {
	if b.state.CompareAndSwap(stateOwned, stateReleased) {
		b.free(b.data)
		b.data = nil
		outstanding.Add(-1)
	}
}

// View is a non-owning window onto a Buffer. It cannot release the
// underlying allocation.
type View struct {
	buf *Buffer
}

// Bytes returns the viewed contents. Panics if the owning buffer has been
// released.
func (v View) Bytes() []byte { return v.buf.Bytes() }

// Len returns the viewed length, or 0 once the owner released.
func (v View) Len() int { return v.buf.Len() }
