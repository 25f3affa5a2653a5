package load

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateStartsAtZero(t *testing.T) {
	assert.Equal(t, 0, NewState().Load())
}

func TestStateSetLoad(t *testing.T) {
	s := NewState()
	for _, v := range []int{12, 99, 0, 57} {
		s.Set(v)
		assert.Equal(t, v, s.Load())
	}
}

// TestStateConcurrentReaders runs readers against a single writer. Every read
// must observe a value some write produced; run with -race to check the lock.
func TestStateConcurrentReaders(t *testing.T) {
	s := NewState()
	written := make(map[int]bool)
	for i := 0; i < 100; i++ {
		written[i] = true
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	bad := make(chan int, 1)

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if v := s.Load(); !written[v] {
					select {
					case bad <- v:
					default:
					}
					return
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		s.Set(i)
	}
	close(stop)
	wg.Wait()

	select {
	case v := <-bad:
		t.Fatalf("observed value %d that was never written", v)
	default:
	}
	assert.Equal(t, 99, s.Load())
}

func TestRandomRange(t *testing.T) {
	for i := 0; i < 10000; i++ {
		v := Random()
		if v < 0 || v > 99 {
			t.Fatalf("Random() = %d, want 0..99", v)
		}
	}
}

func TestGeneratorDraw(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
		want int
	}{
		{"in range", func() int { return 42 }, 42},
		{"negative clamps to zero", func() int { return -17 }, 0},
		{"capacity clamps to 99", func() int { return 100 }, 99},
		{"large clamps to 99", func() int { return 1 << 30 }, 99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.gen.Draw())
		})
	}

	var g Generator
	v := g.Draw()
	assert.GreaterOrEqual(t, v, 0)
	assert.Less(t, v, 100)
}
