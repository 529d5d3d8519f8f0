package codec

import "sync"

const maxPooledBuffer = 64 << 10

// 二进制编码复用的缓冲区
var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 512)
		return &b
	},
}

func getBuffer() *[]byte {
	return bufferPool.Get().(*[]byte)
}

// putBuffer 归还缓冲区，过大的缓冲区直接丢弃
func putBuffer(b *[]byte) {
	if b == nil || cap(*b) > maxPooledBuffer {
		return
	}
	*b = (*b)[:0]
	bufferPool.Put(b)
}
