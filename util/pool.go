package util

import "sync"

// DefaultBufSize is the read buffer size used by TCP connection
// handlers (32 KiB).
const DefaultBufSize = 32 * 1024

// bufPool hands out read buffers to connection handlers so a burst of
// short-lived connections does not allocate a fresh buffer each.
var bufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished.
func GetBuf() *[]byte {
	return bufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.  Buffers that were
// resliced to a different capacity are dropped.
func PutBuf(buf *[]byte) {
	if buf == nil || cap(*buf) != DefaultBufSize {
		return
	}
	*buf = (*buf)[:DefaultBufSize]
	bufPool.Put(buf)
}
