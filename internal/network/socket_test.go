package network

import (
	"testing"
	"time"
)

func TestSendToAndReceiveAllRoundTrip(t *testing.T) {
	a, err := NewSocket("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewSocket a: %v", err)
	}
	defer a.Close()

	b, err := NewSocket("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewSocket b: %v", err)
	}
	defer b.Close()

	payload := []byte("hello peer")
	if err := a.SendTo(payload, b.LocalAddr()); err != nil {
		t.Fatalf("SendTo: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var got []Datagram
	for time.Now().Before(deadline) {
		got = b.ReceiveAll()
		if len(got) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 datagram, got %d", len(got))
	}
	if string(got[0].Data) != "hello peer" {
		t.Fatalf("unexpected payload: %q", got[0].Data)
	}
}

func TestReceiveAllOnEmptyInboxReturnsNil(t *testing.T) {
	a, err := NewSocket("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewSocket: %v", err)
	}
	defer a.Close()

	if got := a.ReceiveAll(); got != nil {
		t.Fatalf("expected nil on empty inbox, got %v", got)
	}
}
