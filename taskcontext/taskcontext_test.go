package taskcontext_test

import (
	"context"
	"testing"

	"github.com/ctrlstack/taskcore/engine"
	"github.com/ctrlstack/taskcore/processor"
	"github.com/ctrlstack/taskcore/taskcontext"
)

func newTestContext(t *testing.T, name string) *taskcontext.TaskContext {
	t.Helper()
	proc, err := processor.New()
	if err != nil {
		t.Fatalf("processor.New: %v", err)
	}
	eng := engine.New(proc)
	eng.Start()
	return taskcontext.New(name, eng)
}

func TestAddPeer_RejectsDuplicateAlias(t *testing.T) {
	a := newTestContext(t, "a")
	b := newTestContext(t, "b")

	if err := a.AddPeer(b, ""); err != nil {
		t.Fatalf("AddPeer: %v", err)
	}
	if !a.HasPeer("b") {
		t.Fatal("expected a to know peer b")
	}
	if err := a.AddPeer(b, ""); err == nil {
		t.Fatal("expected duplicate-alias rejection")
	}
}

func TestConnectPeers_IsTwoWayAndAtomic(t *testing.T) {
	a := newTestContext(t, "a")
	b := newTestContext(t, "b")

	if err := a.ConnectPeers(b); err != nil {
		t.Fatalf("ConnectPeers: %v", err)
	}
	if !a.HasPeer("b") || !b.HasPeer("a") {
		t.Fatal("expected both sides to know each other")
	}

	if err := a.ConnectPeers(b); err == nil {
		t.Fatal("expected second ConnectPeers to fail (already connected)")
	}
}

func TestConnectThenDisconnect_RestoresPriorState(t *testing.T) {
	a := newTestContext(t, "a")
	b := newTestContext(t, "b")

	beforeA := a.GetPeerList()
	beforeB := b.GetPeerList()

	if err := a.ConnectPeers(b); err != nil {
		t.Fatalf("ConnectPeers: %v", err)
	}
	if err := a.DisconnectPeers("b"); err != nil {
		t.Fatalf("DisconnectPeers: %v", err)
	}

	if len(a.GetPeerList()) != len(beforeA) {
		t.Errorf("a's peer list not restored: %v vs %v", a.GetPeerList(), beforeA)
	}
	if len(b.GetPeerList()) != len(beforeB) {
		t.Errorf("b's peer list not restored: %v vs %v", b.GetPeerList(), beforeB)
	}
	if a.HasPeer("b") || b.HasPeer("a") {
		t.Fatal("expected both sides disconnected")
	}
}

func TestDisconnectPeers_FailsUnlessBothSidesConnected(t *testing.T) {
	a := newTestContext(t, "a")
	b := newTestContext(t, "b")

	// one-way only
	if err := a.AddPeer(b, ""); err != nil {
		t.Fatalf("AddPeer: %v", err)
	}
	if err := a.DisconnectPeers("b"); err == nil {
		t.Fatal("expected DisconnectPeers to fail when only one side knows the other")
	}
}

func TestConnectPeers_SelfLoopAllowed(t *testing.T) {
	a := newTestContext(t, "a")
	if err := a.ConnectPeers(a); err != nil {
		t.Fatalf("expected self-connect to succeed (cycles permitted): %v", err)
	}
	if !a.HasPeer("a") {
		t.Fatal("expected a to know itself as a peer")
	}
}

func TestExecuteCommand_ForwardsToEngine(t *testing.T) {
	tc := newTestContext(t, "a")
	cmd := &countingCmd{}

	if !tc.ExecuteCommand(cmd) {
		t.Fatal("ExecuteCommand should be accepted while the engine is running")
	}
	tc.Engine().Step(context.Background())
	if cmd.count != 1 {
		t.Errorf("count = %d, want 1", cmd.count)
	}
}

func TestAttributesAndEvents_RoundTrip(t *testing.T) {
	tc := newTestContext(t, "a")
	ctx := context.Background()

	if err := tc.Attributes().Set(ctx, "max_speed", 2.5); err != nil {
		t.Fatalf("Set: %v", err)
	}
	attr, err := tc.Attributes().Get(ctx, "max_speed")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if attr.Value != 2.5 {
		t.Errorf("Value = %v, want 2.5", attr.Value)
	}

	if _, err := tc.Events().Append(ctx, "state_transition", nil); err != nil {
		t.Fatalf("Append: %v", err)
	}
	events, err := tc.Events().List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
}

type countingCmd struct{ count int }

func (c *countingCmd) Execute() { c.count++ }
