package frame

import "testing"

func TestGuardCloseReturnsFrame(t *testing.T) {
	a := freshAllocator(1)
	g, err := Alloc(a)
	if err != nil {
		t.Fatal(err)
	}
	if a.Free() != 0 {
		t.Fatalf("Free() = %d, want 0 while guard is live", a.Free())
	}
	g.Close()
	if a.Free() != 1 {
		t.Fatalf("Free() = %d, want 1 after Close", a.Free())
	}
}

func TestGuardCloseIsIdempotent(t *testing.T) {
	a := freshAllocator(1)
	g, err := Alloc(a)
	if err != nil {
		t.Fatal(err)
	}
	g.Close()
	g.Close() // must not double-free
	if a.Free() != 1 {
		t.Fatalf("Free() = %d, want 1", a.Free())
	}
}

func TestPhysBorrowedCloseIsNoop(t *testing.T) {
	a := freshAllocator(1)
	g, err := Alloc(a)
	if err != nil {
		t.Fatal(err)
	}
	pa := g.Addr()
	b := Borrow(pa)
	b.Close()
	if a.Free() != 0 {
		t.Fatalf("Borrow.Close must not free the underlying frame")
	}
	g.Close()
}

func TestCowSharedCloseFatal(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic: CowShared is unsupported")
		}
	}()
	var c CowShared
	c.Close()
}
