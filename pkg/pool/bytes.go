package pool

import (
	"fmt"
	"math/bits"
	"sync"
)

const maxBufBits = 31

// bufPools[i] holds buffers with cap 1<<i.
var bufPools [maxBufBits + 1]sync.Pool

func bucket(size int) int {
	if size <= 1 {
		return 0
	}
	return bits.Len(uint(size - 1))
}

// getBuf returns a buffer with len size from the pool.
// The returned buffer is NOT zeroed.
func getBuf(size int) []byte {
	if size < 0 {
		panic(fmt.Sprintf("pool: invalid buf size %d", size))
	}
	i := bucket(size)
	if i > maxBufBits {
		return make([]byte, size)
	}
	if p, ok := bufPools[i].Get().(*[]byte); ok {
		return (*p)[:size]
	}
	return make([]byte, size, 1<<i)
}

// releaseBuf puts b back to the pool. Buffers whose cap is not a
// power of 2 were not allocated by getBuf and are dropped.
func releaseBuf(b []byte) {
	c := cap(b)
	if c == 0 || c&(c-1) != 0 {
		return
	}
	i := bits.Len(uint(c)) - 1
	if i > maxBufBits {
		return
	}
	b = b[:0]
	bufPools[i].Put(&b)
}
