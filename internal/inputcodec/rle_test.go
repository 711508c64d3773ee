package inputcodec

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestRLERoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		{0},
		{1},
		{0, 0, 0, 0},
		{1, 2, 3, 4},
		{0, 0, 1, 0, 0, 0, 2, 3, 0},
		bytes.Repeat([]byte{0}, 300),
		bytes.Repeat([]byte{7}, 300),
	}

	for _, c := range cases {
		enc := EncodeRLE(c)
		dec, err := DecodeRLE(enc)
		if err != nil {
			t.Fatalf("DecodeRLE(EncodeRLE(%v)) error: %v", c, err)
		}
		if !bytes.Equal(dec, c) && !(len(dec) == 0 && len(c) == 0) {
			t.Fatalf("round trip mismatch: got %v, want %v", dec, c)
		}
	}
}

func TestRLERoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := rng.Intn(256)
		data := make([]byte, n)
		for j := range data {
			if rng.Intn(4) == 0 {
				data[j] = byte(rng.Intn(256))
			}
		}
		enc := EncodeRLE(data)
		dec, err := DecodeRLE(enc)
		if err != nil {
			t.Fatalf("unexpected error decoding random case: %v", err)
		}
		if !bytes.Equal(dec, data) && !(len(dec) == 0 && len(data) == 0) {
			t.Fatalf("round trip mismatch for random input %v: got %v", data, dec)
		}
	}
}

func TestDecodeRLENeverPanics(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 2000; i++ {
		n := rng.Intn(32)
		junk := make([]byte, n)
		rng.Read(junk)

		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("DecodeRLE panicked on %v: %v", junk, r)
				}
			}()
			_, _ = DecodeRLE(junk)
		}()
	}
}

func TestDecodeRLERejectsHugeClaimedRun(t *testing.T) {
	var buf []byte
	buf = appendVarint(buf, 1<<62) // huge zero run
	buf = appendVarint(buf, 0)     // zero literals
	if _, err := DecodeRLE(buf); err == nil {
		t.Fatal("expected an error for a claimed run exceeding the decode cap")
	}
}

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 129, 16384, 1 << 40, ^uint64(0)}
	for _, v := range values {
		enc := appendVarint(nil, v)
		got, n, ok := readVarint(enc)
		if !ok || n != len(enc) || got != v {
			t.Fatalf("varint round trip failed for %d: got=%d n=%d ok=%v", v, got, n, ok)
		}
	}
}
