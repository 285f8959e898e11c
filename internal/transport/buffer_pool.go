package transport

import (
	"sync"

	"github.com/quietloop/seekdns/protocol"
)

// bufferPool recycles receive-side scratch buffers so a steady stream of
// inbound datagrams doesn't allocate a fresh buffer per read.
var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, protocol.TransportBufferSize)
		return &buf
	},
}

// GetBuffer returns a pooled receive buffer. Callers must return it with
// PutBuffer, normally via defer.
func GetBuffer() *[]byte {
	return bufferPool.Get().(*[]byte)
}

// PutBuffer clears and returns buf to the pool. buf must not be used
// again afterwards.
func PutBuffer(buf *[]byte) {
	b := *buf
	for i := range b {
		b[i] = 0
	}
	bufferPool.Put(buf)
}
