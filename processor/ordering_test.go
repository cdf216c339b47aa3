package processor_test

import (
	"context"
	"testing"

	"github.com/ctrlstack/taskcore/processor"
)

// orderRecorder tracks the relative order in which collaborators run within
// a single DoStep, independent of wall-clock timing.
type orderRecorder struct {
	seq []string
}

type orderedProgram struct {
	name string
	rec  *orderRecorder
}

func (p *orderedProgram) Name() string { return p.name }
func (p *orderedProgram) Reset()       {}
func (p *orderedProgram) Execute()     { p.rec.seq = append(p.rec.seq, "program:"+p.name) }

type orderedCommand struct {
	rec    *orderRecorder
	onExec func()
}

func (c *orderedCommand) Execute() {
	if c.onExec != nil {
		c.onExec()
	}
	c.rec.seq = append(c.rec.seq, "command")
}

func TestDoStep_OrdersStateMachinesBeforeCommandBeforePrograms(t *testing.T) {
	rec := &orderRecorder{}
	p, _ := processor.New()

	tree := newFakeTree("root", []string{"s0", "s1"})
	if err := p.LoadStateMachine(tree); err != nil {
		t.Fatalf("LoadStateMachine: %v", err)
	}
	p.ActivateStateMachine("root")
	p.StartStateMachine("root")

	prog := &orderedProgram{name: "p1", rec: rec}
	p.LoadProgram(prog)
	p.StartProgram("p1")

	treeDrivenBeforeCommand := false
	cmd := &orderedCommand{rec: rec, onExec: func() {
		treeDrivenBeforeCommand = tree.requestNextStateCalls > 0
	}}
	p.QueueCommand(cmd)

	p.DoStep(context.Background())

	if len(rec.seq) != 2 {
		t.Fatalf("seq = %v, want 2 entries (command, program)", rec.seq)
	}
	if rec.seq[0] != "command" {
		t.Errorf("seq[0] = %q, want %q (command before programs)", rec.seq[0], "command")
	}
	if rec.seq[1] != "program:p1" {
		t.Errorf("seq[1] = %q, want %q", rec.seq[1], "program:p1")
	}
	if tree.requestNextStateCalls == 0 {
		t.Fatal("state machine should have been driven before the command/program pass")
	}
	if !treeDrivenBeforeCommand {
		t.Fatal("state machine should already have been driven when the command executed")
	}
}

func TestDoStep_PreservesLoadOrderAcrossPrograms(t *testing.T) {
	rec := &orderRecorder{}
	p, _ := processor.New()

	p1 := &orderedProgram{name: "p1", rec: rec}
	p2 := &orderedProgram{name: "p2", rec: rec}
	p3 := &orderedProgram{name: "p3", rec: rec}
	p.LoadProgram(p1)
	p.LoadProgram(p2)
	p.LoadProgram(p3)
	p.StartProgram("p1")
	p.StartProgram("p2")
	p.StartProgram("p3")

	p.DoStep(context.Background())

	want := []string{"program:p1", "program:p2", "program:p3"}
	if len(rec.seq) != len(want) {
		t.Fatalf("seq = %v, want %v", rec.seq, want)
	}
	for i, name := range want {
		if rec.seq[i] != name {
			t.Errorf("seq[%d] = %q, want %q", i, rec.seq[i], name)
		}
	}
}
