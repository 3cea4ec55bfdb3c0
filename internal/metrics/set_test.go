package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestSetCountsConcurrently(t *testing.T) {
	s := New(4, true, false)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Inc(2)
		}()
	}
	wg.Wait()

	if got := s.Value(2); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
	s.Inc(99)
	if s.Value(99) != 0 {
		t.Fatal("out of range id must be ignored")
	}
}

func TestDisabledSetIgnoresWrites(t *testing.T) {
	s := New(2, false, true)
	s.Inc(0)
	s.Observe(0, time.Millisecond)
	if s.Value(0) != 0 || s.Buckets(0)[0] != 0 {
		t.Fatal("disabled set recorded a value")
	}
}

func TestObserveBuckets(t *testing.T) {
	s := New(1, true, true)
	s.Observe(0, 3*time.Millisecond)
	s.Observe(0, 40*time.Millisecond)
	s.Observe(0, 2*time.Second)

	b := s.Buckets(0)
	if b[0] != 1 || b[3] != 1 || b[7] != 1 {
		t.Fatalf("unexpected buckets %v", b)
	}
}
