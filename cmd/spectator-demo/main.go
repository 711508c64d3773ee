// Command spectator-demo follows a running match without playing in it:
// it binds a UDP socket, connects to every real player's address, and
// replays the confirmed input stream as it catches up.
//
//	spectator-demo -listen 127.0.0.1:7100 -players 127.0.0.1:7000,127.0.0.1:7001
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/andersfylling/duelback/internal/game"
	"github.com/andersfylling/duelback/internal/inputcodec"
	"github.com/andersfylling/duelback/internal/inputqueue"
	"github.com/andersfylling/duelback/internal/network"
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
	listen := flag.String("listen", "127.0.0.1:7100", "local UDP address to bind")
	playersFlag := flag.String("players", "127.0.0.1:7000,127.0.0.1:7001", "comma-separated list of player addresses to follow")
	frames := flag.Int("frames", 3600, "number of frames to follow before exiting")
	flag.Parse()

	addrs := strings.Split(*playersFlag, ",")
	fmt.Printf("spectator-demo v%s: listening on %s, following %v\n", Version, *listen, addrs)

	socket, err := network.NewSocket(*listen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bind %s: %v\n", *listen, err)
		os.Exit(1)
	}
	defer socket.Close()

	cfg := session.DefaultConfig(len(addrs))
	builder := session.NewSessionBuilder[game.WorldState, game.Intent](cfg, intentCodec(), inputqueue.RepeatLastConfirmed[game.Intent]())
	builder.WithSocket(socket)
	for _, addr := range addrs {
		builder.AddSpectator(strings.TrimSpace(addr))
	}

	sess, err := builder.BuildSpectator()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build session: %v\n", err)
		os.Exit(1)
	}

	world := game.NewWorld()
	for i := range addrs {
		world.SpawnPlayer(i, fmt.Sprintf("remote-%d", i), 5+float64(i*3), 10)
	}

	tickRate := time.Second / time.Duration(cfg.FPS)
	for tick := 0; tick < *frames; tick++ {
		sess.PollRemoteClients()

		reqs, err := sess.AdvanceFrame()
		if err != nil {
			fmt.Fprintf(os.Stderr, "tick %d: %v\n", tick, err)
		}
		for _, req := range reqs {
			fulfill(req, world)
		}

		for _, ev := range sess.Events() {
			fmt.Printf("event: %s\n", ev.Kind)
		}

		time.Sleep(tickRate)
	}

	fmt.Println("spectator-demo: finished")
}
