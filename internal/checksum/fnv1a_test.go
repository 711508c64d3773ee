package checksum

import "testing"

func TestFNV1a64Vectors(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"", 0xcbf29ce484222325},
		{"a", 0xaf63dc4c8601ec8c},
		{"foobar", 0x85944171f73967e8},
	}

	for _, c := range cases {
		if got := FNV1a64([]byte(c.in)); got != c.want {
			t.Errorf("FNV1a64(%q) = %#x, want %#x", c.in, got, c.want)
		}
	}
}

func TestFNV1a64Deterministic(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	a := FNV1a64(data)
	b := FNV1a64(data)
	if a != b {
		t.Fatalf("hash not deterministic: %#x != %#x", a, b)
	}
}

func TestWriterMatchesDirect(t *testing.T) {
	data := []byte("split across writes")
	w := NewWriter()
	_, _ = w.Write(data[:5])
	_, _ = w.Write(data[5:])
	if got, want := w.Sum64(), FNV1a64(data); got != want {
		t.Fatalf("Writer.Sum64() = %#x, want %#x", got, want)
	}
}
