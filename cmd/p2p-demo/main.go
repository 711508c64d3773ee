// Command p2p-demo runs one side of a two-player peer-to-peer match over
// real UDP sockets against the platformer demo world. Run two copies
// pointed at each other to play a local loopback match:
//
//	p2p-demo -listen 127.0.0.1:7000 -peer 127.0.0.1:7001
//	p2p-demo -listen 127.0.0.1:7001 -peer 127.0.0.1:7000
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/andersfylling/duelback/internal/frameinfo"
	"github.com/andersfylling/duelback/internal/game"
	"github.com/andersfylling/duelback/internal/inputcodec"
	"github.com/andersfylling/duelback/internal/inputqueue"
	"github.com/andersfylling/duelback/internal/network"
	"github.com/andersfylling/duelback/internal/peer"
	"github.com/andersfylling/duelback/internal/render"
	"github.com/andersfylling/duelback/internal/session"
	"github.com/andersfylling/duelback/internal/synclayer"
)

// Version is set at build time.
var Version = "dev"

func intentCodec() inputcodec.Codec[game.Intent] {
	return inputcodec.Codec[game.Intent]{
		Size:   1,
		Encode: func(i game.Intent) []byte { return []byte{byte(i)} },
		Decode: func(b []byte) game.Intent { return game.Intent(b[0]) },
	}
}

func fulfill(req synclayer.Request[game.WorldState, game.Intent], world *game.World) {
	switch req.Kind {
	case synclayer.RequestSaveGameState:
		snapshot := world.Snapshot()
		req.Cell.Save(req.Frame, snapshot, snapshot.Checksum)
	case synclayer.RequestLoadGameState:
		if state, ok := req.Cell.State(); ok {
			world.Restore(state)
		}
	case synclayer.RequestAdvanceFrame:
		for _, in := range req.Inputs {
			world.SetPlayerIntent(int(in.Handle), in.Input)
		}
		world.Update()
	}
}

func main() {
	listen := flag.String("listen", "127.0.0.1:7000", "local UDP address to bind")
	peerAddr := flag.String("peer", "127.0.0.1:7001", "remote peer's UDP address")
	frames := flag.Int("frames", 3600, "number of frames to run before exiting (60fps budget)")
	withRender := flag.Bool("render", false, "draw the match in a tcell terminal window instead of running headless")
	flag.Parse()

	fmt.Printf("p2p-demo v%s: listening on %s, peer %s\n", Version, *listen, *peerAddr)

	socket, err := network.NewSocket(*listen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bind %s: %v\n", *listen, err)
		os.Exit(1)
	}
	defer socket.Close()

	cfg := session.DefaultConfig(2)
	builder := session.NewSessionBuilder[game.WorldState, game.Intent](cfg, intentCodec(), inputqueue.RepeatLastConfirmed[game.Intent]())
	builder.WithSocket(socket).AddLocalPlayer().AddRemotePlayer(*peerAddr)

	sess, err := builder.BuildP2P()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build session: %v\n", err)
		os.Exit(1)
	}

	local, _ := sess.LocalPlayerHandle()

	world := game.NewWorld()
	world.SpawnPlayer(0, "host", 5, 10)
	world.SpawnPlayer(1, "guest", 25, 10)

	fmt.Println("p2p-demo: waiting for handshake...")
	for {
		sess.PollRemoteClients()
		reqs, err := sess.AdvanceFrame()
		if err == nil {
			for _, req := range reqs {
				fulfill(req, world)
			}
			break
		}
		time.Sleep(16 * time.Millisecond)
	}
	fmt.Println("p2p-demo: synchronized, starting match")

	var renderer render.GameRenderer
	tiles := game.RenderTileMap(game.DemoLevel())
	if *withRender {
		renderer = render.SelectRenderer(render.Detect())
		if err := renderer.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "render init: %v\n", err)
			os.Exit(1)
		}
		defer renderer.Close()
	}

	tickRate := time.Second / time.Duration(cfg.FPS)
	for tick := 0; tick < *frames; tick++ {
		sess.PollRemoteClients()

		intent := game.IntentRight
		if tick%120 < 60 {
			intent = game.IntentLeft
		}
		if renderer != nil {
			quit := false
			heldIntent := game.IntentNone
			for {
				ev, ok := renderer.PollInput()
				if !ok {
					break
				}
				switch ev.Type {
				case render.InputQuit:
					quit = true
				case render.InputKey:
					heldIntent |= ev.Intent
				}
			}
			if quit {
				break
			}
			intent = heldIntent
		}

		if err := sess.AddLocalInput(local, intent); err != nil {
			// Not yet synchronized or the local queue is saturated; retry
			// next tick rather than treating this as fatal.
			time.Sleep(tickRate)
			continue
		}

		reqs, err := sess.AdvanceFrame()
		if err != nil {
			time.Sleep(tickRate)
			continue
		}
		for _, req := range reqs {
			fulfill(req, world)
		}

		for _, ev := range sess.Events() {
			fmt.Printf("event: %s\n", ev.Kind)
		}

		if renderer != nil {
			state := sess.CurrentState()
			health, _ := sess.PeerHealth(frameinfo.PlayerHandle(1 - local))
			healthT := 0.5
			switch health {
			case peer.SyncHealthInSync:
				healthT = 0
			case peer.SyncHealthDesyncDetected:
				healthT = 1
			}
			renderer.BeginFrame()
			renderer.RenderTileMap(tiles, render.Camera{X: 20, Y: 10, Width: 80, Height: 24})
			renderer.RenderWorld(world, render.Camera{X: 20, Y: 10, Width: 80, Height: 24})
			renderer.DrawSyncStatus(int(state.CurrentFrame), healthT, state.FramesAhead, cfg.MaxPredictionWindow)
			renderer.EndFrame()
		}

		time.Sleep(tickRate)
	}

	fmt.Println("p2p-demo: finished")
}
