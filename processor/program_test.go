package processor_test

import (
	"context"
	"testing"

	"github.com/ctrlstack/taskcore/processor"
)

func TestLoadProgram_RejectsDuplicateName(t *testing.T) {
	p, err := processor.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p1 := newFakeProgram("p1")
	if !p.LoadProgram(p1) {
		t.Fatal("first LoadProgram should succeed")
	}
	if p1.resetCount != 1 {
		t.Errorf("resetCount = %d, want 1", p1.resetCount)
	}

	dup := newFakeProgram("p1")
	if p.LoadProgram(dup) {
		t.Fatal("duplicate-name LoadProgram should fail")
	}
}

func TestDoStep_RunsOnlyRunningPrograms(t *testing.T) {
	p, _ := processor.New()
	p1 := newFakeProgram("p1")
	p2 := newFakeProgram("p2")
	p.LoadProgram(p1)
	p.LoadProgram(p2)

	if !p.StartProgram("p1") {
		t.Fatal("StartProgram(p1) should succeed")
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		p.DoStep(ctx)
	}

	if p1.execCount != 3 {
		t.Errorf("p1.execCount = %d, want 3", p1.execCount)
	}
	if p2.execCount != 0 {
		t.Errorf("p2.execCount = %d, want 0", p2.execCount)
	}

	if !p.StopProgram("p1") {
		t.Fatal("StopProgram(p1) should succeed")
	}
	p.DoStep(ctx)
	if p1.execCount != 3 {
		t.Errorf("p1.execCount after stop+step = %d, want 3", p1.execCount)
	}
}

func TestDoStep_SteppingIsOneShot(t *testing.T) {
	p, _ := processor.New()
	prog := newFakeProgram("p1")
	p.LoadProgram(prog)

	p.StartStepping("p1")
	if !p.IsProgramStepping("p1") {
		t.Fatal("expected stepping flag set after StartStepping")
	}

	ctx := context.Background()
	p.DoStep(ctx)
	if prog.execCount != 1 {
		t.Errorf("execCount = %d, want 1", prog.execCount)
	}
	if p.IsProgramStepping("p1") {
		t.Fatal("stepping flag should clear after the tick that consumes it")
	}

	p.DoStep(ctx)
	if prog.execCount != 1 {
		t.Errorf("execCount after second step = %d, want 1 (one-shot)", prog.execCount)
	}
}

func TestDeleteProgram_RejectedWhileRunning(t *testing.T) {
	p, _ := processor.New()
	prog := newFakeProgram("p1")
	p.LoadProgram(prog)
	p.StartProgram("p1")

	if p.DeleteProgram("p1") {
		t.Fatal("DeleteProgram should fail while running")
	}
	names := p.GetProgramList()
	if len(names) != 1 || names[0] != "p1" {
		t.Fatalf("GetProgramList = %v, want [p1]", names)
	}

	p.StopProgram("p1")
	if !p.DeleteProgram("p1") {
		t.Fatal("DeleteProgram should succeed once stopped")
	}
	if len(p.GetProgramList()) != 0 {
		t.Fatal("program should no longer be enumerated after delete")
	}
}

func TestResetProgram_RequiresIdle(t *testing.T) {
	p, _ := processor.New()
	prog := newFakeProgram("p1")
	p.LoadProgram(prog)
	p.StartProgram("p1")

	if p.ResetProgram("p1") {
		t.Fatal("ResetProgram should fail while running")
	}

	p.StopProgram("p1")
	if !p.ResetProgram("p1") {
		t.Fatal("ResetProgram should succeed once stopped")
	}
	if prog.resetCount != 2 {
		t.Errorf("resetCount = %d, want 2 (load + explicit reset)", prog.resetCount)
	}
}
