package tetris

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// scriptedSource は決められた値を順番に返す rand.Source です。
// rand.Rand.Intn(8) は値 & 7、Intn(7) は値 % 7 を返すようになります。
type scriptedSource struct {
	values []int
	pos    int
}

func (s *scriptedSource) Int63() int64 {
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return int64(v) << 32
}

func (s *scriptedSource) Seed(int64) {}

func newScripted(values ...int) (*Randomizer, *scriptedSource) {
	src := &scriptedSource{values: values}
	return NewRandomizer(rand.New(src)), src
}

func TestRandomizer_Next(t *testing.T) {
	tests := []struct {
		name     string
		draws    []int
		prev     PieceType
		want     PieceType
		consumed int
	}{
		{"first draw accepted", []int{5}, NoPiece, TypeO, 1},
		{"eighth face redraws", []int{7, 3}, TypeT, TypeS, 2},
		{"repeat redraws", []int{2, 2}, TypeZ, TypeZ, 2},
		{"repeat redraw may differ", []int{2, 4}, TypeZ, TypeL, 2},
		{"different piece accepted", []int{6}, TypeZ, TypeI, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, src := newScripted(tt.draws...)
			assert.Equal(t, tt.want, r.Next(tt.prev))
			assert.Equal(t, tt.consumed, src.pos)
		})
	}
}

// TestRandomizer_Distribution は長い抽選で範囲外の値が出ず、
// 連続（リドロー後の一致）も起こりうることをテストします。
func TestRandomizer_Distribution(t *testing.T) {
	r := NewRandomizer(rand.New(rand.NewSource(42)))
	prev := NoPiece
	counts := make([]int, PieceCount)
	repeats := 0
	for i := 0; i < 10000; i++ {
		n := r.Next(prev)
		if n < 0 || n >= PieceCount {
			t.Fatalf("unexpected piece type %d", n)
		}
		counts[n]++
		if n == prev {
			repeats++
		}
		prev = n
	}
	for pt, c := range counts {
		assert.Greater(t, c, 0, "piece %s never drawn", PieceType(pt))
	}
	assert.Greater(t, repeats, 0)
}

func TestRandomizer_SameSeedSameSequence(t *testing.T) {
	a := NewRandomizer(rand.New(rand.NewSource(7)))
	b := NewRandomizer(rand.New(rand.NewSource(7)))
	prevA, prevB := NoPiece, NoPiece
	for i := 0; i < 100; i++ {
		prevA, prevB = a.Next(prevA), b.Next(prevB)
		assert.Equal(t, prevA, prevB)
	}
}
