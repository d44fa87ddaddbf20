package deltasync_test

import (
	"testing"

	deltasync "github.com/hearthnet/deltasync"
)

func newTestProtocol() (*deltasync.Protocol, *deltasync.Class, *deltasync.Field, *deltasync.Field, *deltasync.Field) {
	p := deltasync.NewProtocol(16)
	cl := p.NewObjectClass()
	x := cl.NewVarField()
	y := cl.NewVarField()
	ref := cl.NewRefField()
	return p, cl, x, y, ref
}

// TestRoundTripBasicField checks that a single object's variable
// field survives one produce/consume round trip unchanged.
func TestRoundTripBasicField(t *testing.T) {
	_, cl, x, _, _ := newTestProtocol()
	p := cl.Protocol()
	auth := deltasync.NewAuthority(p)
	peer := auth.CreatePeer()

	obj := auth.CreateObject(cl)
	obj.SetInt(x, 42)
	peer.SetVisible(obj, true)
	auth.PublishFrame()

	msg := peer.ProduceMessage()
	peer.ConsumeMessage(msg)

	views := peer.GetRemoteObjects()
	if len(views) != 1 {
		t.Fatalf("expected 1 replica, got %d", len(views))
	}
	if got := views[0].GetInt(x); got != 42 {
		t.Errorf("GetInt(x) = %d, want 42", got)
	}
}

// TestRoundTripSeveralFrames drives several ticks of field mutation
// through produce/consume and checks the replica tracks every value.
func TestRoundTripSeveralFrames(t *testing.T) {
	_, cl, x, y, _ := newTestProtocol()
	p := cl.Protocol()
	auth := deltasync.NewAuthority(p)
	peer := auth.CreatePeer()

	obj := auth.CreateObject(cl)
	peer.SetVisible(obj, true)

	for i := int32(0); i < 10; i++ {
		obj.SetInt(x, i*3)
		obj.SetInt(y, i*i)
		auth.PublishFrame()
		msg := peer.ProduceMessage()
		peer.ConsumeMessage(msg)

		views := peer.GetRemoteObjects()
		if len(views) != 1 {
			t.Fatalf("tick %d: expected 1 replica, got %d", i, len(views))
		}
		if got := views[0].GetInt(x); got != i*3 {
			t.Errorf("tick %d: GetInt(x) = %d, want %d", i, got, i*3)
		}
		if got := views[0].GetInt(y); got != i*i {
			t.Errorf("tick %d: GetInt(y) = %d, want %d", i, got, i*i)
		}
	}
}

// TestReferenceFieldResolvesToSibling checks that a reference field
// naming another visible object resolves to the matching replica.
func TestReferenceFieldResolvesToSibling(t *testing.T) {
	_, cl, x, _, ref := newTestProtocol()
	p := cl.Protocol()
	auth := deltasync.NewAuthority(p)
	peer := auth.CreatePeer()

	leader := auth.CreateObject(cl)
	leader.SetInt(x, 1)
	follower := auth.CreateObject(cl)
	follower.SetInt(x, 2)
	follower.SetRef(ref, leader)

	peer.SetVisible(leader, true)
	peer.SetVisible(follower, true)
	auth.PublishFrame()

	peer.ConsumeMessage(peer.ProduceMessage())

	views := peer.GetRemoteObjects()
	if len(views) != 2 {
		t.Fatalf("expected 2 replicas, got %d", len(views))
	}
	var leaderView, followerView *deltasync.Object
	for _, v := range views {
		switch v.GetInt(x) {
		case 1:
			leaderView = v
		case 2:
			followerView = v
		}
	}
	if leaderView == nil || followerView == nil {
		t.Fatalf("failed to identify replica roles")
	}
	if got := followerView.GetRef(ref); got != leaderView {
		t.Errorf("follower's ref did not resolve to leader replica")
	}
}

// TestNilReferenceResolvesToNil checks that a reference field left
// unset decodes as nil rather than an arbitrary object.
func TestNilReferenceResolvesToNil(t *testing.T) {
	_, cl, _, _, ref := newTestProtocol()
	p := cl.Protocol()
	auth := deltasync.NewAuthority(p)
	peer := auth.CreatePeer()

	obj := auth.CreateObject(cl)
	peer.SetVisible(obj, true)
	auth.PublishFrame()
	peer.ConsumeMessage(peer.ProduceMessage())

	views := peer.GetRemoteObjects()
	if len(views) != 1 {
		t.Fatalf("expected 1 replica, got %d", len(views))
	}
	if got := views[0].GetRef(ref); got != nil {
		t.Errorf("GetRef on unset field = %v, want nil", got)
	}
}

// TestObjectDestroyRemovesReplicaAndPurgesReferences checks that
// destroying an object both stops it from being resent as visible and
// clears any other object's reference to it.
func TestObjectDestroyRemovesReplicaAndPurgesReferences(t *testing.T) {
	_, cl, _, _, ref := newTestProtocol()
	p := cl.Protocol()
	auth := deltasync.NewAuthority(p)
	peer := auth.CreatePeer()

	target := auth.CreateObject(cl)
	holder := auth.CreateObject(cl)
	holder.SetRef(ref, target)

	peer.SetVisible(target, true)
	peer.SetVisible(holder, true)
	auth.PublishFrame()
	peer.ConsumeMessage(peer.ProduceMessage())

	if got := holder.GetRef(ref); got != target {
		t.Fatalf("setup: holder's ref should point at target before destroy")
	}

	target.Destroy()
	if got := holder.GetRef(ref); got != nil {
		t.Errorf("holder's ref should be cleared after target.Destroy(), got %v", got)
	}

	auth.PublishFrame()
	peer.ConsumeMessage(peer.ProduceMessage())

	views := peer.GetRemoteObjects()
	if len(views) != 1 {
		t.Fatalf("expected only the holder replica to remain, got %d", len(views))
	}
}

// TestEventDeliveredOnce checks that an event becomes visible exactly
// once, even though the update message carrying it may be produced and
// consumed several times before the remote end acknowledges it.
func TestEventDeliveredOnce(t *testing.T) {
	p := deltasync.NewProtocol(16)
	evCl := p.NewEventClass()
	payload := evCl.NewConstField()

	auth := deltasync.NewAuthority(p)
	peer := auth.CreatePeer()

	ev := auth.CreateObject(evCl)
	ev.SetInt(payload, 7)
	peer.SetVisible(ev, true)
	auth.PublishFrame()

	total := 0
	for i := 0; i < 3; i++ {
		msg := peer.ProduceMessage()
		peer.ConsumeMessage(msg)
		total += len(peer.GetRemoteObjects())
	}
	if total != 1 {
		t.Errorf("event delivered %d times across repeated messages, want exactly 1", total)
	}
}

// TestVisibilityRevoked checks that clearing an object's visibility
// removes it from the peer's replica set after the next publish.
func TestVisibilityRevoked(t *testing.T) {
	_, cl, _, _, _ := newTestProtocol()
	p := cl.Protocol()
	auth := deltasync.NewAuthority(p)
	peer := auth.CreatePeer()

	obj := auth.CreateObject(cl)
	peer.SetVisible(obj, true)
	auth.PublishFrame()
	peer.ConsumeMessage(peer.ProduceMessage())
	if len(peer.GetRemoteObjects()) != 1 {
		t.Fatalf("expected 1 visible replica before revocation")
	}

	peer.SetVisible(obj, false)
	auth.PublishFrame()
	peer.ConsumeMessage(peer.ProduceMessage())
	if len(peer.GetRemoteObjects()) != 0 {
		t.Errorf("expected 0 visible replicas after revocation, got %d", len(peer.GetRemoteObjects()))
	}
}

// TestTrafficCountersAccumulate checks the supplemented Peer traffic
// counters track produced/consumed message and byte totals.
func TestTrafficCountersAccumulate(t *testing.T) {
	_, cl, x, _, _ := newTestProtocol()
	p := cl.Protocol()
	auth := deltasync.NewAuthority(p)
	peer := auth.CreatePeer()

	obj := auth.CreateObject(cl)
	peer.SetVisible(obj, true)

	for i := int32(0); i < 5; i++ {
		obj.SetInt(x, i)
		auth.PublishFrame()
		msg := peer.ProduceMessage()
		peer.ConsumeMessage(msg)
	}
	if got := peer.MessagesProduced(); got != 5 {
		t.Errorf("MessagesProduced() = %d, want 5", got)
	}
	if got := peer.MessagesConsumed(); got != 5 {
		t.Errorf("MessagesConsumed() = %d, want 5", got)
	}
	if peer.BytesProduced() == 0 {
		t.Errorf("BytesProduced() = 0, want > 0")
	}
}
