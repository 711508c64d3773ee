// Package inputcodec implements the wire compression for batches of
// fixed-size player inputs: XOR-delta against a reference input, then
// run-length encoding of the resulting mostly-zero byte stream.
//
// The RLE stream alternates (zero_run_len varint, literal_count varint,
// literal bytes...) frames. Decoding reconstructs by emitting zero_run_len
// zero bytes, then literal_count literal bytes, repeating until the
// encoded buffer is exhausted.
package inputcodec

import "github.com/andersfylling/duelback/internal/frameinfo"

// maxDecodedSize bounds the total size DecodeRLE will reconstruct. A
// corrupt or adversarial stream can claim an enormous zero run with just a
// few varint bytes; without this cap that would force an allocation wildly
// disproportionate to the encoded buffer's actual size.
const maxDecodedSize = 1 << 20

// EncodeRLE compresses data into the zero-run/literal-run stream described
// above. Encoding is total: every byte sequence has a valid encoding.
func EncodeRLE(data []byte) []byte {
	out := make([]byte, 0, len(data)/4+4)

	i := 0
	for i < len(data) {
		zeroStart := i
		for i < len(data) && data[i] == 0 {
			i++
		}
		zeroLen := i - zeroStart

		litStart := i
		for i < len(data) && data[i] != 0 {
			i++
		}
		lit := data[litStart:i]

		out = appendVarint(out, uint64(zeroLen))
		out = appendVarint(out, uint64(len(lit)))
		out = append(out, lit...)
	}

	return out
}

// DecodeRLE reverses EncodeRLE. It never panics: any truncated or
// ill-formed stream yields a SerializationError instead.
func DecodeRLE(encoded []byte) ([]byte, error) {
	out := make([]byte, 0, len(encoded)*2)

	buf := encoded
	for len(buf) > 0 {
		zeroLen, n, ok := readVarint(buf)
		if !ok {
			return nil, frameinfo.Newf(frameinfo.CodeSerializationError, "inputcodec: truncated zero-run varint")
		}
		buf = buf[n:]

		litLen, n, ok := readVarint(buf)
		if !ok {
			return nil, frameinfo.Newf(frameinfo.CodeSerializationError, "inputcodec: truncated literal-count varint")
		}
		buf = buf[n:]

		// Bound the claimed lengths by what's actually left to read so a
		// corrupt huge length can't force an unbounded allocation.
		if litLen > uint64(len(buf)) {
			return nil, frameinfo.Newf(frameinfo.CodeSerializationError, "inputcodec: literal run longer than remaining buffer")
		}
		if zeroLen > uint64(maxDecodedSize) || zeroLen+litLen > uint64(maxDecodedSize-len(out)) {
			return nil, frameinfo.Newf(frameinfo.CodeSerializationError, "inputcodec: decoded size exceeds cap")
		}

		for j := uint64(0); j < zeroLen; j++ {
			out = append(out, 0)
		}
		out = append(out, buf[:litLen]...)
		buf = buf[litLen:]
	}

	return out, nil
}
