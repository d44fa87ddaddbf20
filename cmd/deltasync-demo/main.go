// Command deltasync-demo runs a tiny authority/peer simulation: a
// handful of entities bounce around a bounded plane, an Authority
// publishes one frame per tick, and a single Peer's messages are
// produced and consumed in a loop, printing how the replica's view
// tracks the authoritative state.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/pkg/errors"

	deltasync "github.com/hearthnet/deltasync"
)

func main() {
	var (
		ticks    int
		entities int
		seed     int64
	)
	flag.IntVar(&ticks, "ticks", 20, "number of frames to simulate")
	flag.IntVar(&entities, "entities", 3, "number of bouncing entities")
	flag.Int64Var(&seed, "seed", 1, "PRNG seed")
	flag.Parse()

	if err := run(ticks, entities, seed); err != nil {
		log.Fatalf("%+v", err)
	}
}

type entity struct {
	obj        *deltasync.Object
	x, y       int32
	dx, dy     int32
}

func run(ticks, entities int, seed int64) error {
	if entities < 1 {
		return errors.Errorf("need at least one entity, got %d", entities)
	}
	rng := rand.New(rand.NewSource(seed))

	protocol := deltasync.NewProtocol(16)
	entityClass := protocol.NewObjectClass()
	xField := entityClass.NewVarField()
	yField := entityClass.NewVarField()
	leaderField := entityClass.NewRefField()

	auth := deltasync.NewAuthority(protocol)
	peer := auth.CreatePeer()

	ents := make([]*entity, entities)
	for i := range ents {
		e := &entity{
			obj: auth.CreateObject(entityClass),
			x:   int32(rng.Intn(100)),
			y:   int32(rng.Intn(100)),
			dx:  int32(rng.Intn(3) - 1),
			dy:  int32(rng.Intn(3) - 1),
		}
		e.obj.SetInt(xField, e.x)
		e.obj.SetInt(yField, e.y)
		ents[i] = e
	}
	for i, e := range ents {
		if i > 0 {
			e.obj.SetRef(leaderField, ents[0].obj)
		}
		peer.SetVisible(e.obj, true)
	}

	for tick := 0; tick < ticks; tick++ {
		for _, e := range ents {
			e.x, e.dx = bounce(e.x, e.dx)
			e.y, e.dy = bounce(e.y, e.dy)
			e.obj.SetInt(xField, e.x)
			e.obj.SetInt(yField, e.y)
		}
		auth.PublishFrame()

		msg := peer.ProduceMessage()
		peer.ConsumeMessage(msg) // loop the message straight back for this single-process demo

		fmt.Printf("tick %2d: frame=%d message=%d bytes (total %d produced, %d consumed)\n",
			tick, auth.Frame(), len(msg), peer.BytesProduced(), peer.BytesConsumed())
		views := peer.GetRemoteObjects()
		for i, view := range views {
			x := view.GetInt(xField)
			y := view.GetInt(yField)
			leader := "-"
			if l := view.GetRef(leaderField); l != nil {
				for j, other := range views {
					if other == l {
						leader = fmt.Sprintf("replica %d", j)
					}
				}
			}
			fmt.Printf("  replica %d: (%d, %d) leader=%s\n", i, x, y, leader)
		}
	}
	return nil
}

// bounce reflects a moving coordinate off the [0, 99] boundary.
func bounce(pos, vel int32) (int32, int32) {
	pos += vel
	switch {
	case pos < 0:
		return -pos, -vel
	case pos > 99:
		return 199 - pos, -vel
	default:
		return pos, vel
	}
}
