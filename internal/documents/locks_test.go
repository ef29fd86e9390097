package documents

import (
	"sync"
	"testing"
)

func TestLockTableMutualExclusion(t *testing.T) {
	var locks lockTable

	if !locks.TryAcquire("doc-1") {
		t.Fatal("first acquire should succeed")
	}
	if locks.TryAcquire("doc-1") {
		t.Fatal("second acquire on held lock should fail")
	}
	if !locks.TryAcquire("doc-2") {
		t.Fatal("unrelated document should not be blocked")
	}

	locks.Release("doc-1")
	if !locks.TryAcquire("doc-1") {
		t.Fatal("acquire after release should succeed")
	}
}

func TestLockTableReleaseUnheldIsNoop(t *testing.T) {
	var locks lockTable
	locks.Release("never-held")
	if locks.Held("never-held") {
		t.Fatal("lock should not be held")
	}
}

func TestLockTableConcurrentAcquire(t *testing.T) {
	var locks lockTable
	var wg sync.WaitGroup
	won := make(chan string, 64)

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if locks.TryAcquire("doc-1") {
				won <- "doc-1"
			}
		}()
	}
	wg.Wait()
	close(won)

	count := 0
	for range won {
		count++
	}
	if count != 1 {
		t.Fatalf("exactly one goroutine should win the lock, got %d", count)
	}
}
