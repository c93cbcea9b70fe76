package mocks

import "io"

// Reader allows mocking an io.Reader.
type Reader struct {
	MockRead func(b []byte) (int, error)
}

var _ io.Reader = &Reader{}

// Read calls MockRead.
func (r *Reader) Read(b []byte) (int, error) {
	return r.MockRead(b)
}
