package relay

import (
	"bytes"
	"testing"
)

func TestSendQueueFIFO(t *testing.T) {
	q := newSendQueue(4)
	q.Push([]byte("a"))
	q.Push([]byte("b"))
	q.Push([]byte("c"))

	got := q.Drain()
	if len(got) != 3 {
		t.Fatalf("want 3, got %d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if !bytes.Equal(got[i], []byte(want)) {
			t.Fatalf("slot %d: want %q, got %q", i, want, got[i])
		}
	}
	if q.Len() != 0 {
		t.Fatalf("drain left %d items", q.Len())
	}
}

func TestSendQueueDropOldest(t *testing.T) {
	q := newSendQueue(2)
	if dropped := q.Push([]byte("a")); dropped {
		t.Fatal("dropped below capacity")
	}
	q.Push([]byte("b"))
	if dropped := q.Push([]byte("c")); !dropped {
		t.Fatal("overflow not reported")
	}

	got := q.Drain()
	if len(got) != 2 || string(got[0]) != "b" || string(got[1]) != "c" {
		t.Fatalf("want [b c], got %q", got)
	}
}

func TestSendQueueDefaultCapacity(t *testing.T) {
	q := newSendQueue(0)
	for i := 0; i < 64; i++ {
		if q.Push([]byte{byte(i)}) {
			t.Fatalf("dropped at %d with default capacity", i)
		}
	}
	if !q.Push([]byte{0xff}) {
		t.Fatal("65th push should drop")
	}
}

func TestSendQueueClear(t *testing.T) {
	q := newSendQueue(4)
	q.Push([]byte("a"))
	q.Clear()
	if q.Len() != 0 {
		t.Fatalf("clear left %d items", q.Len())
	}
}
