package inputcodec

import (
	"bytes"
	"testing"
)

func TestEncodeBatchRoundTrip(t *testing.T) {
	const inputSize = 4
	ref := []byte{1, 2, 3, 4}

	flat := []byte{
		1, 2, 3, 4, // identical to ref
		1, 2, 3, 5, // one byte differs
		9, 9, 9, 9, // all differ
	}

	enc := EncodeBatch(flat, ref, inputSize)
	dec, err := DecodeBatch(enc, ref, inputSize)
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	if !bytes.Equal(dec, flat) {
		t.Fatalf("round trip mismatch: got %v, want %v", dec, flat)
	}
}

func TestEncodeBatchIdenticalToReferenceIsMostlyZero(t *testing.T) {
	const inputSize = 8
	ref := make([]byte, inputSize)
	for i := range ref {
		ref[i] = byte(i)
	}
	flat := bytes.Repeat(ref, 10)

	enc := EncodeBatch(flat, ref, inputSize)
	if len(enc) >= len(flat) {
		t.Fatalf("expected compression for all-matching batch, got %d bytes from %d", len(enc), len(flat))
	}
}

func TestDecodeBatchRejectsWrongReferenceSize(t *testing.T) {
	_, err := DecodeBatch(nil, []byte{1, 2, 3}, 4)
	if err == nil {
		t.Fatal("expected error for mismatched reference size")
	}
}

func TestDecodeBatchRejectsNonMultipleLength(t *testing.T) {
	ref := []byte{0, 0, 0, 0}
	// Encode a single stray byte as a "literal" run, which RLE will happily
	// decode to length 1 — not a multiple of inputSize 4.
	enc := EncodeRLE([]byte{5})
	if _, err := DecodeBatch(enc, ref, 4); err == nil {
		t.Fatal("expected error for a decoded length that is not a multiple of inputSize")
	}
}
