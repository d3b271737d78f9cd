package utils

import (
	"testing"
	"time"
)

func TestRandomReproducibility(t *testing.T) {
	seed := int64(42)

	rng1 := NewRandom(seed)
	rng2 := NewRandom(seed)

	t.Run("IntN", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			v1 := rng1.IntN(1000)
			v2 := rng2.IntN(1000)
			if v1 != v2 {
				t.Errorf("Mismatch at iteration %d: %d != %d", i, v1, v2)
				return
			}
		}
	})

	rng1 = NewRandom(seed)
	rng2 = NewRandom(seed)

	t.Run("Fork", func(t *testing.T) {
		f1 := rng1.Fork()
		f2 := rng2.Fork()
		if f1.Seed() != f2.Seed() {
			t.Errorf("Forked seeds differ: %d != %d", f1.Seed(), f2.Seed())
		}
		for i := 0; i < 100; i++ {
			if f1.NumericString(4) != f2.NumericString(4) {
				t.Error("NumericString mismatch between forks")
				return
			}
		}
	})
}

func TestRandomRanges(t *testing.T) {
	rng := NewRandom(7)

	for i := 0; i < 1000; i++ {
		if v := rng.IntRange(3, 5); v < 3 || v > 5 {
			t.Fatalf("IntRange out of bounds: %d", v)
		}
		if d := rng.Duration(time.Millisecond, 10*time.Millisecond); d < time.Millisecond || d > 10*time.Millisecond {
			t.Fatalf("Duration out of bounds: %s", d)
		}
	}

	if rng.IntRange(9, 9) != 9 {
		t.Error("IntRange with equal bounds should return min")
	}
	if rng.Probability(0) {
		t.Error("Probability(0) should never be true")
	}
	if !rng.Probability(1) {
		t.Error("Probability(1) should always be true")
	}
}

func TestNumericString(t *testing.T) {
	rng := NewRandom(1)
	s := rng.NumericString(4)
	if len(s) != 4 {
		t.Fatalf("Expected length 4, got %d", len(s))
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			t.Errorf("Unexpected character %q", c)
		}
	}
}
