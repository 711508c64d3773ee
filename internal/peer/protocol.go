package peer

import (
	"time"

	"github.com/andersfylling/duelback/internal/event"
	"github.com/andersfylling/duelback/internal/frameinfo"
	"github.com/andersfylling/duelback/internal/inputcodec"
	"github.com/andersfylling/duelback/internal/inputqueue"
	"github.com/andersfylling/duelback/internal/wire"
)

// Tick advances the peer's timers and returns any messages it wants sent
// now. localFrame is the session's current_frame, used for time-sync and
// desync-check cadence.
func (p *Peer[S, I]) Tick(now time.Time, localFrame frameinfo.Frame) []wire.Message {
	p.checkSilence(now)
	if p.state == StateDisconnected {
		return nil
	}

	var out []wire.Message

	if p.state == StateSyncing {
		if now.Sub(p.lastSendTime) >= p.cfg.SendInterval {
			out = append(out, p.buildSyncRequest())
			p.lastSendTime = now
		}
		return out
	}

	if now.Sub(p.lastSendTime) >= p.cfg.SendInterval {
		p.lastSendTime = now
		if msg, ok := p.buildInputMessage(); ok {
			out = append(out, msg)
			p.lastInputOrKATime = now
		}
	}
	if now.Sub(p.lastInputOrKATime) >= p.cfg.SilenceInterval {
		out = append(out, wire.Message{Header: p.header(), Tag: wire.TagKeepAlive})
		p.lastInputOrKATime = now
	}
	if now.Sub(p.lastQualityTime) >= p.cfg.QualityReportInterval {
		out = append(out, p.buildQualityReport(now, localFrame))
		p.lastQualityTime = now
	}
	if msg, ok := p.buildChecksumReport(localFrame); ok {
		out = append(out, msg)
	}

	return out
}

func (p *Peer[S, I]) checkSilence(now time.Time) {
	silence := now.Sub(p.lastRecvTime)
	switch {
	case silence >= p.cfg.DisconnectTimeout:
		if p.state != StateDisconnected {
			p.state = StateDisconnected
			p.events.Push(event.Event{Kind: event.KindDisconnected, Handle: p.handle})
		}
	case silence >= p.cfg.DisconnectNotifyStart:
		if !p.notifiedInterrupted {
			p.notifiedInterrupted = true
			p.events.Push(event.Event{Kind: event.KindNetworkInterrupted, Handle: p.handle})
		}
	default:
		if p.notifiedInterrupted {
			p.notifiedInterrupted = false
			p.events.Push(event.Event{Kind: event.KindNetworkResumed, Handle: p.handle})
		}
	}
}

func (p *Peer[S, I]) buildSyncRequest() wire.Message {
	return wire.Message{
		Header:      p.header(),
		Tag:         wire.TagSyncRequest,
		SyncRequest: wire.SyncRequest{Random: uint32(p.localMagic)},
	}
}

// buildInputMessage packages every frame in (lastAcked, localQueue's
// last added] into one compressed Input message, or reports ok=false if
// there's nothing new to send.
func (p *Peer[S, I]) buildInputMessage() (wire.Message, bool) {
	lastAdded := p.localQueue.LastAddedFrame()
	if lastAdded.IsNull() {
		return wire.Message{}, false
	}
	start := p.lastAcked.Add(1)
	if p.lastAcked.IsNull() {
		start = 0
	}
	if !start.Before(lastAdded.Add(1)) {
		return wire.Message{}, false
	}

	n := int(lastAdded-start) + 1
	flat := make([]byte, 0, n*p.codec.Size)
	for f := start; f <= lastAdded; f++ {
		in, _ := p.localQueue.Input(f)
		flat = append(flat, p.codec.Encode(in.Input)...)
	}

	reference := p.referenceInputBytes(p.localQueue, start)
	compressed := inputcodec.EncodeBatch(flat, reference, p.codec.Size)

	return wire.Message{
		Header: p.header(),
		Tag:    wire.TagInput,
		Input: wire.Input{
			StartFrame:         start,
			DisconnectReqFrame: frameinfo.NullFrame,
			AckFrame:           p.remoteQueue.LastAddedFrame(),
			NumBits:            uint16(n),
			InputSize:          uint8(p.codec.Size),
			CompressedBytes:    compressed,
		},
	}, true
}

// referenceInputBytes returns the encoded form of the input immediately
// preceding start (the peer's "last acked input"), or a zero-valued
// reference if there is none yet.
func (p *Peer[S, I]) referenceInputBytes(q *inputqueue.InputQueue[I], start frameinfo.Frame) []byte {
	if !start.IsNull() && start > 0 {
		if in, status := q.Input(start - 1); status == frameinfo.InputConfirmed {
			return p.codec.Encode(in.Input)
		}
	}
	return make([]byte, p.codec.Size)
}

func (p *Peer[S, I]) buildQualityReport(now time.Time, localFrame frameinfo.Frame) wire.Message {
	remoteFrame := p.remoteQueue.LastAddedFrame()
	advantage := int32(localFrame)
	if !remoteFrame.IsNull() {
		advantage = int32(localFrame) - int32(remoteFrame)
	}
	p.estimator.RecordLocal(advantage)

	return wire.Message{
		Header: p.header(),
		Tag:    wire.TagQualityReport,
		QualityReport: wire.QualityReport{
			FrameAdvantage: advantage,
			Ping:           uint32(now.UnixMilli()),
		},
	}
}

func (p *Peer[S, I]) buildChecksumReport(localFrame frameinfo.Frame) (wire.Message, bool) {
	if p.cfg.DesyncInterval <= 0 {
		return wire.Message{}, false
	}
	if int(localFrame)%p.cfg.DesyncInterval != 0 || localFrame == p.lastCheckedFrame {
		return wire.Message{}, false
	}
	cell := p.local.CellFor(localFrame)
	if cell == nil {
		return wire.Message{}, false
	}
	checksum, ok := cell.Checksum()
	if !ok {
		return wire.Message{}, false
	}
	p.lastCheckedFrame = localFrame

	return wire.Message{
		Header:         p.header(),
		Tag:            wire.TagChecksumReport,
		ChecksumReport: wire.ChecksumReport{Frame: localFrame, Checksum: wire.Checksum(checksum)},
	}, true
}

// HandleMessage processes one inbound message and returns any immediate
// reply it provokes (a SyncReply, InputAck, or QualityReply).
func (p *Peer[S, I]) HandleMessage(now time.Time, msg *wire.Message) *wire.Message {
	p.lastRecvTime = now

	switch msg.Tag {
	case wire.TagSyncRequest:
		return &wire.Message{
			Header:   p.header(),
			Tag:      wire.TagSyncReply,
			SyncReply: wire.SyncReply{Random: msg.SyncRequest.Random},
		}

	case wire.TagSyncReply:
		if p.state == StateSyncing && uint16(msg.SyncReply.Random) == p.localMagic {
			p.syncRoundTrips++
			if p.syncRoundTrips >= p.cfg.SyncRoundTripsRequired {
				p.state = StateRunning
				p.events.Push(event.Event{Kind: event.KindSynchronized, Handle: p.handle})
			}
		}
		return nil

	case wire.TagInput:
		p.handleInput(&msg.Input)
		return &wire.Message{
			Header:   p.header(),
			Tag:      wire.TagInputAck,
			InputAck: wire.InputAck{AckFrame: p.remoteQueue.LastAddedFrame()},
		}

	case wire.TagInputAck:
		if !msg.InputAck.AckFrame.IsNull() && (p.lastAcked.IsNull() || msg.InputAck.AckFrame > p.lastAcked) {
			p.lastAcked = msg.InputAck.AckFrame
		}
		return nil

	case wire.TagQualityReport:
		p.estimator.RecordRemote(msg.QualityReport.FrameAdvantage)
		return &wire.Message{
			Header:        p.header(),
			Tag:           wire.TagQualityReply,
			QualityReply:  wire.QualityReply{Pong: msg.QualityReport.Ping},
		}

	case wire.TagQualityReply:
		return nil // RTT accounting is a host/diagnostics concern, not core state.

	case wire.TagKeepAlive:
		return nil

	case wire.TagChecksumReport:
		p.handleChecksumReport(msg.ChecksumReport)
		return nil
	}

	return nil
}

func (p *Peer[S, I]) handleInput(in *wire.Input) {
	reference := p.referenceInputBytes(p.remoteQueue, in.StartFrame)
	flat, err := inputcodec.DecodeBatch(in.CompressedBytes, reference, int(in.InputSize))
	if err != nil {
		return // malformed datagram: silently dropped per §7
	}

	for i := 0; i*int(in.InputSize) < len(flat); i++ {
		frame := in.StartFrame.Add(i)
		if frame <= p.remoteQueue.LastAddedFrame() {
			continue
		}
		chunk := flat[i*int(in.InputSize) : (i+1)*int(in.InputSize)]
		value := p.codec.Decode(chunk)
		p.remoteQueue.AddInput(inputqueue.PlayerInput[I]{Frame: frame, Input: value}, false)
	}
}

func (p *Peer[S, I]) handleChecksumReport(report wire.ChecksumReport) {
	cell := p.local.CellFor(report.Frame)
	if cell == nil {
		p.syncHealth = SyncHealthPending
		return
	}
	local, ok := cell.Checksum()
	if !ok {
		p.syncHealth = SyncHealthPending
		return
	}
	if local == [16]byte(report.Checksum) {
		p.syncHealth = SyncHealthInSync
		return
	}
	p.syncHealth = SyncHealthDesyncDetected
	p.events.Push(event.Event{
		Kind:   event.KindDesyncDetected,
		Handle: p.handle,
		Frame:  report.Frame,
		Local:  local,
		Remote: report.Checksum,
	})
}
