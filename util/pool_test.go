package util

import "testing"

func TestBufPool_RoundTrip(t *testing.T) {
	buf := GetBuf()
	if buf == nil {
		t.Fatal("GetBuf returned nil")
	}
	if len(*buf) != DefaultBufSize {
		t.Errorf("buffer size = %d, want %d", len(*buf), DefaultBufSize)
	}

	(*buf)[0] = 0xFF
	*buf = (*buf)[:10]
	PutBuf(buf)

	buf2 := GetBuf()
	if len(*buf2) != DefaultBufSize {
		t.Errorf("reused buffer size = %d, want %d", len(*buf2), DefaultBufSize)
	}
	PutBuf(buf2)
}

func TestPutBuf_Nil(t *testing.T) {
	// Should not panic.
	PutBuf(nil)
}

func TestPutBuf_ForeignCapacity(t *testing.T) {
	small := make([]byte, 16)
	PutBuf(&small) // dropped, must not panic
}
