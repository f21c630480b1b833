//go:build !cgo

package nativebuf

// Without cgo the "native" allocation falls back to the Go heap. The
// ownership contract is enforced identically; only the allocator differs.
func allocBytes(n int) ([]byte, func([]byte), error) {
	return make([]byte, n), func([]byte) {}, nil
}
