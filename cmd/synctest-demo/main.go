// Command synctest-demo drives a SyncTestSession against the platformer
// demo world, forcing a rollback and resimulation every frame to flush out
// nondeterminism in the simulation before it ever reaches a real match.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/andersfylling/duelback/internal/frameinfo"
	"github.com/andersfylling/duelback/internal/game"
	"github.com/andersfylling/duelback/internal/input"
	"github.com/andersfylling/duelback/internal/inputcodec"
	"github.com/andersfylling/duelback/internal/inputqueue"
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

// fulfill carries out a single synclayer request against world, the one
// mutable simulation the host keeps; saved/loaded states are always
// game.WorldState value snapshots, never the world itself.
func fulfill(req synclayer.Request[game.WorldState, game.Intent], world *game.World) error {
	switch req.Kind {
	case synclayer.RequestSaveGameState:
		snapshot := world.Snapshot()
		req.Cell.Save(req.Frame, snapshot, snapshot.Checksum)
	case synclayer.RequestLoadGameState:
		state, ok := req.Cell.State()
		if !ok {
			return fmt.Errorf("load requested for frame %d with no saved state", req.Frame)
		}
		world.Restore(state)
	case synclayer.RequestAdvanceFrame:
		for _, in := range req.Inputs {
			world.SetPlayerIntent(int(in.Handle), in.Input)
		}
		world.Update()
	}
	return nil
}

func main() {
	players := flag.Int("players", 2, "number of locally-driven players")
	frames := flag.Int("frames", 600, "number of frames to simulate")
	checkDistance := flag.Int("check-distance", 7, "frames of forced rollback each tick")
	flag.Parse()

	fmt.Printf("synctest-demo v%s: %d players, %d frames, check-distance=%d\n", Version, *players, *frames, *checkDistance)

	cfg := session.DefaultConfig(*players)
	cfg.CheckDistance = *checkDistance

	builder := session.NewSessionBuilder[game.WorldState, game.Intent](cfg, intentCodec(), inputqueue.RepeatLastConfirmed[game.Intent]())
	sess := builder.BuildSyncTest()

	world := game.NewWorld()
	for i := 0; i < *players; i++ {
		world.SpawnPlayer(i, fmt.Sprintf("p%d", i), 5+float64(i*3), 10)
	}
	world.SpawnEnemy("slime", 20, 10)

	// Each player's scripted intent is recorded through an input.Buffer
	// before it reaches AddLocalInput, the same tick-aligned buffering a
	// real client would use between capturing a key and sending it.
	buffers := make([]*input.Buffer, *players)
	for i := range buffers {
		buffers[i] = input.NewBuffer()
	}

	for tick := 0; tick < *frames; tick++ {
		for i := 0; i < *players; i++ {
			var intent game.Intent
			switch {
			case tick%7 == i:
				intent = game.IntentAttack
			case tick%11 == i:
				intent = game.IntentJump
			case tick%2 == 0:
				intent = game.IntentRight
			default:
				intent = game.IntentLeft
			}
			buffers[i].Add(intent)
			buffers[i].Tick()

			for _, frame := range buffers[i].Flush() {
				if err := sess.AddLocalInput(frameinfo.PlayerHandle(i), frame.Intents); err != nil {
					fmt.Fprintf(os.Stderr, "tick %d: add input: %v\n", tick, err)
					os.Exit(1)
				}
			}
		}

		reqs, err := sess.AdvanceFrame()
		if err != nil {
			fmt.Fprintf(os.Stderr, "tick %d: desync detected: %v\n", tick, err)
			os.Exit(1)
		}

		for _, req := range reqs {
			if err := fulfill(req, world); err != nil {
				fmt.Fprintf(os.Stderr, "tick %d: %v\n", tick, err)
				os.Exit(1)
			}
		}
	}

	fmt.Println("synctest-demo: completed with no desyncs")
}
