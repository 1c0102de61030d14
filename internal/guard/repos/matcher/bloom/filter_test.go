package bloom

import (
	"sync"
	"testing"
)

func TestFilter_AddAndProbe(t *testing.T) {
	f := NewFactory().New(32, 0.05)

	key := []byte("line")
	if f.MightContain(key) {
		t.Fatalf("unexpected positive before add")
	}
	f.Add(key)
	if !f.MightContain(key) {
		t.Fatalf("expected maybe after add")
	}
}

func TestFilter_Params(t *testing.T) {
	f := NewFactory().New(100, 0.01).(*filter)
	m, k := f.Params()
	wantM, wantK := Size(100, 0.01)
	if m < uint(wantM) || k != uint(wantK) {
		t.Fatalf("params m=%d k=%d, want m>=%d k=%d", m, k, wantM, wantK)
	}
}

func TestFilter_ConcurrentReadsDuringWrites(t *testing.T) {
	f := NewFactory().New(256, 0.01)

	var wg sync.WaitGroup
	done := make(chan struct{})
	keys := [][]byte{[]byte("qori"), []byte("fami"), []byte("104.")}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10_000; i++ {
			f.Add(keys[i%3])
		}
		close(done)
	}()

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					_ = f.MightContain([]byte("prob"))
				}
			}
		}()
	}
	wg.Wait()

	for _, k := range keys {
		if !f.MightContain(k) {
			t.Fatalf("expected %q to be present after writes", k)
		}
	}
}
