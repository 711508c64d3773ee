package wire

import (
	"encoding/binary"

	"github.com/andersfylling/duelback/internal/frameinfo"
)

// maxConnectStatus and maxCompressedBytes bound the length-prefixed fields
// of an Input message so a corrupt or adversarial length prefix cannot
// force an allocation wildly out of proportion to the datagram that
// carried it. These are generous relative to any plausible session (a few
// hundred players, tens of KB of compressed input per datagram).
const (
	maxConnectStatus   = 256
	maxCompressedBytes = 1 << 16
)

const headerSize = 2 + 2 + 2 + 4

// Encode serializes m into a fresh little-endian byte slice.
func Encode(m *Message) []byte {
	buf := make([]byte, 0, headerSize+32)
	buf = appendHeader(buf, m.Header)
	buf = append(buf, byte(m.Tag))

	switch m.Tag {
	case TagSyncRequest:
		buf = appendU32(buf, m.SyncRequest.Random)
	case TagSyncReply:
		buf = appendU32(buf, m.SyncReply.Random)
	case TagInput:
		buf = appendInput(buf, &m.Input)
	case TagInputAck:
		buf = appendI32(buf, int32(m.InputAck.AckFrame))
	case TagQualityReport:
		buf = appendI32(buf, m.QualityReport.FrameAdvantage)
		buf = appendU32(buf, m.QualityReport.Ping)
	case TagQualityReply:
		buf = appendU32(buf, m.QualityReply.Pong)
	case TagKeepAlive:
		// no body
	case TagChecksumReport:
		buf = appendI32(buf, int32(m.ChecksumReport.Frame))
		buf = append(buf, m.ChecksumReport.Checksum[:]...)
	}

	return buf
}

// Decode parses a Message out of buf. Any unknown tag, any length field
// exceeding its cap, or a truncated buffer yields a SerializationError —
// never a panic and never an allocation proportional to an attacker-
// controlled length field alone.
func Decode(buf []byte) (*Message, error) {
	if len(buf) < headerSize+1 {
		return nil, frameinfo.Newf(frameinfo.CodeSerializationError, "wire: buffer shorter than header+tag")
	}

	m := &Message{}
	m.Header, buf = readHeader(buf)
	m.Tag = Tag(buf[0])
	buf = buf[1:]

	switch m.Tag {
	case TagSyncRequest:
		v, rest, ok := readU32(buf)
		if !ok {
			return nil, errTruncated()
		}
		m.SyncRequest.Random = v
		buf = rest
	case TagSyncReply:
		v, rest, ok := readU32(buf)
		if !ok {
			return nil, errTruncated()
		}
		m.SyncReply.Random = v
		buf = rest
	case TagInput:
		in, rest, err := readInput(buf)
		if err != nil {
			return nil, err
		}
		m.Input = *in
		buf = rest
	case TagInputAck:
		v, rest, ok := readI32(buf)
		if !ok {
			return nil, errTruncated()
		}
		m.InputAck.AckFrame = frameinfo.Frame(v)
		buf = rest
	case TagQualityReport:
		adv, rest, ok := readI32(buf)
		if !ok {
			return nil, errTruncated()
		}
		ping, rest2, ok := readU32(rest)
		if !ok {
			return nil, errTruncated()
		}
		m.QualityReport.FrameAdvantage = adv
		m.QualityReport.Ping = ping
		buf = rest2
	case TagQualityReply:
		v, rest, ok := readU32(buf)
		if !ok {
			return nil, errTruncated()
		}
		m.QualityReply.Pong = v
		buf = rest
	case TagKeepAlive:
		// no body
	case TagChecksumReport:
		frame, rest, ok := readI32(buf)
		if !ok {
			return nil, errTruncated()
		}
		if len(rest) < 16 {
			return nil, errTruncated()
		}
		var cs Checksum
		copy(cs[:], rest[:16])
		m.ChecksumReport.Frame = frameinfo.Frame(frame)
		m.ChecksumReport.Checksum = cs
		buf = rest[16:]
	default:
		return nil, frameinfo.Newf(frameinfo.CodeSerializationError, "wire: unknown tag %d", m.Tag)
	}

	_ = buf // trailing bytes are ignored; one datagram is one message
	return m, nil
}

func errTruncated() error {
	return frameinfo.Newf(frameinfo.CodeSerializationError, "wire: truncated message body")
}

func appendHeader(buf []byte, h Header) []byte {
	buf = appendU16(buf, h.Magic)
	buf = appendU16(buf, h.Sequence)
	buf = appendU16(buf, h.Ack)
	buf = appendU32(buf, h.AckBitmask)
	return buf
}

func readHeader(buf []byte) (Header, []byte) {
	h := Header{
		Magic:      binary.LittleEndian.Uint16(buf[0:2]),
		Sequence:   binary.LittleEndian.Uint16(buf[2:4]),
		Ack:        binary.LittleEndian.Uint16(buf[4:6]),
		AckBitmask: binary.LittleEndian.Uint32(buf[6:10]),
	}
	return h, buf[headerSize:]
}

func appendU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendI32(buf []byte, v int32) []byte {
	return appendU32(buf, uint32(v))
}

func readU16(buf []byte) (uint16, []byte, bool) {
	if len(buf) < 2 {
		return 0, nil, false
	}
	return binary.LittleEndian.Uint16(buf[:2]), buf[2:], true
}

func readU32(buf []byte) (uint32, []byte, bool) {
	if len(buf) < 4 {
		return 0, nil, false
	}
	return binary.LittleEndian.Uint32(buf[:4]), buf[4:], true
}

func readI32(buf []byte) (int32, []byte, bool) {
	v, rest, ok := readU32(buf)
	return int32(v), rest, ok
}

func appendInput(buf []byte, in *Input) []byte {
	buf = appendI32(buf, int32(in.StartFrame))
	buf = appendI32(buf, int32(in.DisconnectReqFrame))
	buf = appendI32(buf, int32(in.AckFrame))
	buf = appendU16(buf, in.NumBits)
	buf = append(buf, in.InputSize)
	buf = appendU16(buf, uint16(len(in.CompressedBytes)))
	buf = append(buf, in.CompressedBytes...)
	buf = appendU16(buf, uint16(len(in.PeerConnectStatus)))
	for _, cs := range in.PeerConnectStatus {
		buf = appendI32(buf, int32(cs.LastFrame))
		if cs.Disconnected {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf
}

func readInput(buf []byte) (*Input, []byte, error) {
	in := &Input{}

	startFrame, buf, ok := readI32(buf)
	if !ok {
		return nil, nil, errTruncated()
	}
	discFrame, buf, ok := readI32(buf)
	if !ok {
		return nil, nil, errTruncated()
	}
	ackFrame, buf, ok := readI32(buf)
	if !ok {
		return nil, nil, errTruncated()
	}
	numBits, buf, ok := readU16(buf)
	if !ok {
		return nil, nil, errTruncated()
	}
	if len(buf) < 1 {
		return nil, nil, errTruncated()
	}
	inputSize := buf[0]
	buf = buf[1:]

	compLen, buf, ok := readU16(buf)
	if !ok {
		return nil, nil, errTruncated()
	}
	if int(compLen) > maxCompressedBytes {
		return nil, nil, frameinfo.Newf(frameinfo.CodeSerializationError, "wire: compressed length %d exceeds cap", compLen)
	}
	if len(buf) < int(compLen) {
		return nil, nil, errTruncated()
	}
	compressed := make([]byte, compLen)
	copy(compressed, buf[:compLen])
	buf = buf[compLen:]

	statusCount, buf, ok := readU16(buf)
	if !ok {
		return nil, nil, errTruncated()
	}
	if int(statusCount) > maxConnectStatus {
		return nil, nil, frameinfo.Newf(frameinfo.CodeSerializationError, "wire: connect-status count %d exceeds cap", statusCount)
	}

	statuses := make([]ConnectStatus, 0, statusCount)
	for i := 0; i < int(statusCount); i++ {
		lastFrame, rest, ok := readI32(buf)
		if !ok {
			return nil, nil, errTruncated()
		}
		if len(rest) < 1 {
			return nil, nil, errTruncated()
		}
		disc := rest[0] != 0
		buf = rest[1:]
		statuses = append(statuses, ConnectStatus{
			LastFrame:    frameinfo.Frame(lastFrame),
			Disconnected: disc,
		})
	}

	in.StartFrame = frameinfo.Frame(startFrame)
	in.DisconnectReqFrame = frameinfo.Frame(discFrame)
	in.AckFrame = frameinfo.Frame(ackFrame)
	in.NumBits = numBits
	in.InputSize = inputSize
	in.CompressedBytes = compressed
	in.PeerConnectStatus = statuses

	return in, buf, nil
}
