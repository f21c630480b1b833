//go:build cgo

package nativebuf

// #include <stdlib.h>
import "C"

import "unsafe"

// allocBytes grabs zeroed memory from the C heap so the buffer address stays
// stable for the lifetime of the handoff (the Go GC never moves it).
func allocBytes(n int) ([]byte, func([]byte), error) {
	p := C.calloc(C.size_t(n), 1)
	if p == nil {
		return nil, nil, ErrAllocation
	}
	data := unsafe.Slice((*byte)(p), n)
	free := func(b []byte) {
		C.free(unsafe.Pointer(&b[0]))
	}
	return data, free, nil
}
