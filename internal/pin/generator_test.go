package pin

import (
	"math/rand"
	"sync"
	"testing"
)

func TestGenerate_LengthAndCharset(t *testing.T) {
	g := NewGeneratorWithSource(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		code, err := g.Generate(6)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("Generate returned %q, want 6 characters", code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("Generate returned non-digit %q in %q", c, code)
			}
		}
	}
}

func TestGenerate_InvalidLength(t *testing.T) {
	g := NewGenerator()
	for _, length := range []int{0, -1, -100} {
		if _, err := g.Generate(length); err != ErrInvalidLength {
			t.Errorf("Generate(%d): err = %v, want ErrInvalidLength", length, err)
		}
	}
}

func TestGenerate_MinimumLength(t *testing.T) {
	g := NewGeneratorWithSource(rand.NewSource(42))
	code, err := g.Generate(1)
	if err != nil {
		t.Fatalf("Generate(1): %v", err)
	}
	if len(code) != 1 {
		t.Errorf("Generate(1) returned %q", code)
	}
}

func TestGenerate_Concurrent(t *testing.T) {
	g := NewGenerator()
	const goroutines = 32
	const perGoroutine = 100

	var wg sync.WaitGroup
	errs := make(chan string, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				code, err := g.Generate(8)
				if err != nil || len(code) != 8 {
					errs <- code
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for code := range errs {
		t.Errorf("concurrent Generate returned short or failed output %q", code)
	}
}
