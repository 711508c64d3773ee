package wire

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/andersfylling/duelback/internal/frameinfo"
)

func roundTrip(t *testing.T, m *Message) *Message {
	t.Helper()
	enc := Encode(m)
	dec, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode(Encode(m)) error: %v", err)
	}
	return dec
}

func TestMessageRoundTripAllTags(t *testing.T) {
	hdr := Header{Magic: 0x1234, Sequence: 7, Ack: 3, AckBitmask: 0xdeadbeef}

	messages := []*Message{
		{Header: hdr, Tag: TagSyncRequest, SyncRequest: SyncRequest{Random: 42}},
		{Header: hdr, Tag: TagSyncReply, SyncReply: SyncReply{Random: 99}},
		{
			Header: hdr,
			Tag:    TagInput,
			Input: Input{
				StartFrame:         10,
				DisconnectReqFrame: frameinfo.NullFrame,
				AckFrame:           9,
				NumBits:            3,
				InputSize:          4,
				CompressedBytes:    []byte{1, 2, 3, 4, 5},
				PeerConnectStatus: []ConnectStatus{
					{LastFrame: 9, Disconnected: false},
					{LastFrame: frameinfo.NullFrame, Disconnected: true},
				},
			},
		},
		{Header: hdr, Tag: TagInputAck, InputAck: InputAck{AckFrame: 123}},
		{Header: hdr, Tag: TagQualityReport, QualityReport: QualityReport{FrameAdvantage: -3, Ping: 555}},
		{Header: hdr, Tag: TagQualityReply, QualityReply: QualityReply{Pong: 555}},
		{Header: hdr, Tag: TagKeepAlive},
		{Header: hdr, Tag: TagChecksumReport, ChecksumReport: ChecksumReport{Frame: 60, Checksum: Checksum{1, 2, 3}}},
	}

	for _, m := range messages {
		got := roundTrip(t, m)
		if !reflect.DeepEqual(got, m) {
			t.Fatalf("round trip mismatch for tag %v:\n got=%+v\nwant=%+v", m.Tag, got, m)
		}
	}
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	hdr := Header{}
	buf := appendHeader(nil, hdr)
	buf = append(buf, 0xFF) // unknown tag
	if _, err := Decode(buf); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestDecodeRejectsTruncatedBuffer(t *testing.T) {
	m := &Message{Tag: TagInput, Input: Input{CompressedBytes: []byte{1, 2, 3, 4}}}
	enc := Encode(m)
	for n := 0; n < len(enc); n++ {
		if _, err := Decode(enc[:n]); err == nil {
			t.Fatalf("expected error decoding truncated buffer of length %d (full=%d)", n, len(enc))
		}
	}
}

func TestDecodeRejectsOversizedLengthFields(t *testing.T) {
	hdr := Header{}
	buf := appendHeader(nil, hdr)
	buf = append(buf, byte(TagInput))
	buf = appendI32(buf, 0)
	buf = appendI32(buf, -1)
	buf = appendI32(buf, 0)
	buf = appendU16(buf, 0)
	buf = append(buf, 4)
	buf = appendU16(buf, 0xFFFF) // claims 65535 compressed bytes but none follow

	if _, err := Decode(buf); err == nil {
		t.Fatal("expected error for an oversized/unfulfillable length field")
	}
}

func TestDecodeNeverPanicsOnRandomBytes(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 3000; i++ {
		n := rng.Intn(64)
		junk := make([]byte, n)
		rng.Read(junk)

		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Decode panicked on %v: %v", junk, r)
				}
			}()
			_, _ = Decode(junk)
		}()
	}
}
