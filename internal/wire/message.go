// Package wire implements the deterministic, tag-prefixed little-endian
// framing for every message exchanged between peers (§4.C). One datagram
// always carries exactly one Message; there is no multi-message
// coalescing.
package wire

import "github.com/andersfylling/duelback/internal/frameinfo"

// Header is shared by every message. internal/peer fills only Magic;
// Sequence, Ack and AckBitmask are carried by the codec but it always
// sends them as zero.
type Header struct {
	Magic      uint16 // the sending peer's local_magic
	Sequence   uint16 // monotonically increasing per-sender sequence number
	Ack        uint16 // sequence number of the highest message the sender has seen
	AckBitmask uint32 // bitmask of the 32 sequence numbers preceding Ack
}

// Tag identifies a message body's concrete type.
type Tag uint8

const (
	TagSyncRequest Tag = iota
	TagSyncReply
	TagInput
	TagInputAck
	TagQualityReport
	TagQualityReply
	TagKeepAlive
	TagChecksumReport
)

// Checksum is an opaque, host-computed game-state digest. The core never
// interprets its bytes, only compares them for equality.
type Checksum [16]byte

// ConnectStatus reports one player's last-confirmed frame and whether the
// sender believes that player has disconnected.
type ConnectStatus struct {
	LastFrame    frameinfo.Frame
	Disconnected bool
}

// SyncRequest is the first message sent by a peer in the Syncing state.
type SyncRequest struct {
	Random uint32
}

// SyncReply echoes the random nonce from a SyncRequest.
type SyncReply struct {
	Random uint32
}

// Input carries a run of compressed inputs starting at StartFrame, plus
// the sender's view of every player's connection status.
type Input struct {
	StartFrame         frameinfo.Frame
	DisconnectReqFrame frameinfo.Frame
	AckFrame           frameinfo.Frame
	NumBits            uint16 // number of inputs represented in CompressedBytes
	InputSize          uint8  // size in bytes of one uncompressed input
	CompressedBytes    []byte
	PeerConnectStatus  []ConnectStatus
}

// InputAck acknowledges receipt of compressed input up to AckFrame.
type InputAck struct {
	AckFrame frameinfo.Frame
}

// QualityReport carries the sender's local frame advantage and a ping
// timestamp for RTT measurement.
type QualityReport struct {
	FrameAdvantage int32
	Ping           uint32
}

// QualityReply echoes the ping timestamp back as Pong.
type QualityReply struct {
	Pong uint32
}

// KeepAlive carries no payload; it exists purely to reset the peer's
// silence timers.
type KeepAlive struct{}

// ChecksumReport carries a host-computed checksum for desync detection.
type ChecksumReport struct {
	Frame    frameinfo.Frame
	Checksum Checksum
}

// Message is one framed wire message: a header plus exactly one body.
// Exactly one of the typed fields is meaningful, selected by Tag — this
// mirrors a tagged union without reflection.
type Message struct {
	Header Header
	Tag    Tag

	SyncRequest    SyncRequest
	SyncReply      SyncReply
	Input          Input
	InputAck       InputAck
	QualityReport  QualityReport
	QualityReply   QualityReply
	ChecksumReport ChecksumReport
}
