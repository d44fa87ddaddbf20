package deltasync

import (
	"testing"

	"github.com/hearthnet/deltasync/codec"
)

// TestConsumeUpdateDropsPrunedBaseline exercises spec section 4.7's
// silent-abort rule for loss-tolerant delivery (scenarios S4/S6): a
// framelist citing a baseline frame this end has already pruned from
// its own frame history must be dropped, not panic on a nil state
// snapshot.
func TestConsumeUpdateDropsPrunedBaseline(t *testing.T) {
	p := NewProtocol(16)
	cl := p.NewObjectClass()
	x := cl.NewVarField()

	auth := NewAuthority(p)
	peer := auth.CreatePeer()

	obj := auth.CreateObject(cl)
	obj.SetInt(x, 1)
	peer.SetVisible(obj, true)
	auth.PublishFrame() // frame 1

	peer.ConsumeMessage(peer.ProduceMessage())
	if peer.remote.latestFrame != 1 {
		t.Fatalf("setup: expected latestFrame 1, got %d", peer.remote.latestFrame)
	}
	if len(peer.GetRemoteObjects()) != 1 {
		t.Fatalf("setup: expected 1 replica after the first message")
	}

	// Simulate frame 1's state having aged out of this end's retention
	// window, the way remoteset.go's own pruning loop would have
	// removed it on a later consumeUpdate.
	delete(peer.remote.frameStates, 1)
	delete(peer.remote.frameRefs, 1)
	delete(peer.remote.frames, 1)
	if peer.remote.frameStates[1] != nil {
		t.Fatalf("setup: frame 1 state should be gone")
	}

	// Hand-build a framelist naming frame 2 with frame 1 as its sole
	// baseline -- exactly what the sender would produce believing frame
	// 1 was still an acknowledged baseline -- and feed it straight to
	// consumeUpdate, bypassing ProduceMessage since the guard must fire
	// before any further bytes are expected.
	enc := codec.NewEncoder()
	encodeFramelist(enc, []int32{2, 1}, 5, p.maxFrameDelta)
	dec := codec.NewDecoder(enc.Finish())

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("consumeUpdate panicked on a pruned baseline: %v", r)
			}
		}()
		peer.remote.consumeUpdate(dec, peer)
	}()

	if peer.remote.latestFrame != 1 {
		t.Errorf("latestFrame = %d, want unchanged at 1 (message should have been dropped)", peer.remote.latestFrame)
	}
	if _, ok := peer.remote.frameStates[2]; ok {
		t.Errorf("frame 2 state should not have been recorded from a dropped message")
	}

	// The connection must still work once a message citing a baseline
	// this end actually has arrives.
	obj.SetInt(x, 2)
	auth.PublishFrame() // frame 2
	peer.ConsumeMessage(peer.ProduceMessage())
	if peer.remote.latestFrame != 2 {
		t.Fatalf("latestFrame = %d, want 2 after a valid follow-up message", peer.remote.latestFrame)
	}
	views := peer.GetRemoteObjects()
	if len(views) != 1 || views[0].GetInt(x) != 2 {
		t.Errorf("replica did not recover to the expected value after the dropped message")
	}
}
