package gid

import "testing"

func TestCurrentDistinguishesGoroutines(t *testing.T) {
	self := Current()
	if self == 0 {
		t.Fatalf("expected non-zero goroutine id")
	}
	if again := Current(); again != self {
		t.Fatalf("id changed within one goroutine: %d != %d", self, again)
	}

	other := make(chan uint64)
	go func() { other <- Current() }()
	if got := <-other; got == self || got == 0 {
		t.Fatalf("expected a distinct non-zero id for another goroutine, got %d (self %d)", got, self)
	}
}
