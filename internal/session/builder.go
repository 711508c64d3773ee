package session

import (
	"github.com/andersfylling/duelback/internal/frameinfo"
	"github.com/andersfylling/duelback/internal/inputcodec"
	"github.com/andersfylling/duelback/internal/inputqueue"
	"github.com/andersfylling/duelback/internal/network"
	"github.com/andersfylling/duelback/internal/peer"
)

// SessionBuilder accumulates configuration and a player table, then
// produces one of the three session variants. It does not own a
// default: callers set what they need and build.
type SessionBuilder[S any, I comparable] struct {
	cfg     Config
	peerCfg peer.Config
	codec   inputcodec.Codec[I]
	predict inputqueue.Strategy[I]
	socket  *network.Socket
	players []frameinfo.PlayerType
}

// NewSessionBuilder starts from cfg and the conservative peer defaults.
func NewSessionBuilder[S any, I comparable](cfg Config, codec inputcodec.Codec[I], predict inputqueue.Strategy[I]) *SessionBuilder[S, I] {
	return &SessionBuilder[S, I]{
		cfg:     cfg,
		peerCfg: peer.DefaultConfig(),
		codec:   codec,
		predict: predict,
	}
}

// WithPeerConfig overrides the per-peer protocol timing.
func (b *SessionBuilder[S, I]) WithPeerConfig(pc peer.Config) *SessionBuilder[S, I] {
	b.peerCfg = pc
	return b
}

// WithSocket supplies the non-blocking socket a P2P or Spectator session
// sends and receives datagrams through.
func (b *SessionBuilder[S, I]) WithSocket(socket *network.Socket) *SessionBuilder[S, I] {
	b.socket = socket
	return b
}

// AddLocalPlayer registers the host's own player at the next handle.
func (b *SessionBuilder[S, I]) AddLocalPlayer() *SessionBuilder[S, I] {
	b.players = append(b.players, frameinfo.PlayerType{Kind: frameinfo.PlayerLocal})
	return b
}

// AddRemotePlayer registers a remote participant reachable at addr.
func (b *SessionBuilder[S, I]) AddRemotePlayer(addr string) *SessionBuilder[S, I] {
	b.players = append(b.players, frameinfo.PlayerType{Kind: frameinfo.PlayerRemote, Address: addr})
	return b
}

// AddSpectator registers a remote observer reachable at addr.
func (b *SessionBuilder[S, I]) AddSpectator(addr string) *SessionBuilder[S, I] {
	b.players = append(b.players, frameinfo.PlayerType{Kind: frameinfo.PlayerSpectator, Address: addr})
	return b
}

// BuildP2P produces a P2PSession from the accumulated player table. It
// requires a local player, a socket, and at least one remote.
func (b *SessionBuilder[S, I]) BuildP2P() (*P2PSession[S, I], error) {
	if b.socket == nil {
		return nil, frameinfo.Newf(frameinfo.CodeInvalidRequest, "session: BuildP2P requires WithSocket")
	}
	cfg := b.cfg
	cfg.NumPlayers = len(b.players)
	return NewP2PSession[S, I](cfg, b.socket, b.predict, b.codec, b.peerCfg, b.players)
}

// BuildSpectator produces a SpectatorSession following the accumulated
// player table, none of which may be PlayerLocal.
func (b *SessionBuilder[S, I]) BuildSpectator() (*SpectatorSession[S, I], error) {
	if b.socket == nil {
		return nil, frameinfo.Newf(frameinfo.CodeInvalidRequest, "session: BuildSpectator requires WithSocket")
	}
	cfg := b.cfg
	cfg.NumPlayers = len(b.players)
	return NewSpectatorSession[S, I](cfg, b.socket, b.predict, b.codec, b.peerCfg, b.players)
}

// BuildSyncTest produces a SyncTestSession for cfg.NumPlayers
// locally-driven players; the player table accumulated via AddRemotePlayer
// or AddSpectator is ignored since a SyncTest session has no peers.
func (b *SessionBuilder[S, I]) BuildSyncTest() *SyncTestSession[S, I] {
	return NewSyncTestSession[S, I](b.cfg, b.predict, b.codec)
}
