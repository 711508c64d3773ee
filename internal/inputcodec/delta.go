package inputcodec

import "github.com/andersfylling/duelback/internal/frameinfo"

// EncodeBatch compresses a batch of n inputs, each inputSize bytes, stored
// back-to-back in flat, relative to the reference input ref (also
// inputSize bytes, typically the peer's most-recently-confirmed input).
//
// flat must be exactly n*inputSize bytes long; this is a programmer
// invariant of the caller (the peer protocol), not something untrusted
// wire data can violate, so it panics rather than returning an error.
func EncodeBatch(flat []byte, ref []byte, inputSize int) []byte {
	if inputSize == 0 {
		return nil
	}
	if len(flat)%inputSize != 0 {
		panic("inputcodec: flat is not a whole number of inputSize-byte inputs")
	}
	if len(ref) != inputSize {
		panic("inputcodec: reference input has the wrong size")
	}

	delta := make([]byte, len(flat))
	for i := range flat {
		delta[i] = flat[i] ^ ref[i%inputSize]
	}
	return EncodeRLE(delta)
}

// DecodeBatch reverses EncodeBatch, reconstructing n inputs of inputSize
// bytes each against reference ref. It rejects any encoded buffer whose
// decoded length is not a multiple of inputSize.
func DecodeBatch(encoded []byte, ref []byte, inputSize int) ([]byte, error) {
	if inputSize == 0 {
		if len(encoded) == 0 {
			return nil, nil
		}
		return nil, frameinfo.Newf(frameinfo.CodeSerializationError, "inputcodec: zero input size with non-empty payload")
	}
	if len(ref) != inputSize {
		return nil, frameinfo.Newf(frameinfo.CodeSerializationError, "inputcodec: reference input has the wrong size")
	}

	delta, err := DecodeRLE(encoded)
	if err != nil {
		return nil, err
	}
	if len(delta)%inputSize != 0 {
		return nil, frameinfo.Newf(frameinfo.CodeSerializationError, "inputcodec: decoded batch is not a whole number of inputs")
	}

	flat := make([]byte, len(delta))
	for i := range delta {
		flat[i] = delta[i] ^ ref[i%inputSize]
	}
	return flat, nil
}
