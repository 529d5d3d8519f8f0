package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source 随机数来源，测试时可注入确定性实现
type Source interface {
	// IntN 返回 [0, n) 区间内的随机整数，n 必须大于 0
	IntN(n int) int
}

// lockedSource 并发安全的 math/rand/v2 包装
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New 创建以当前时间为种子的随机源
func New() Source {
	now := uint64(time.Now().UnixNano())
	return NewSeeded(now, now>>1)
}

// NewSeeded 创建固定种子的随机源
func NewSeeded(seed1, seed2 uint64) Source {
	return &lockedSource{r: rand.New(rand.NewPCG(seed1, seed2))}
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// Shuffle Fisher-Yates 洗牌，返回打乱后的新切片，不修改入参
func Shuffle[T any](src Source, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Sequence 按顺序回放预设值的随机源（取模保证落在区间内）
type Sequence struct {
	mu     sync.Mutex
	values []int
	pos    int
}

// NewSequence 创建回放随机源，值用完后从头循环
func NewSequence(values ...int) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	if v < 0 {
		v = -v
	}
	return v % n
}
