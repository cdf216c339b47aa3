package taskcontext_test

import (
	"testing"

	"github.com/ctrlstack/taskcore/processor"
	"github.com/ctrlstack/taskcore/taskcontext"
)

func TestMemCommandFactory_CreateUnknown(t *testing.T) {
	f := taskcontext.NewMemCommandFactory()
	if _, err := f.Create("missing"); err == nil {
		t.Fatal("expected error for unregistered command")
	}
}

func TestMemCommandFactory_RegisterAndCreate(t *testing.T) {
	f := taskcontext.NewMemCommandFactory()
	f.Register("noop", func() processor.Command { return &countingCmd{} })

	if got := f.Names(); len(got) != 1 || got[0] != "noop" {
		t.Fatalf("Names() = %v, want [noop]", got)
	}
	cmd, err := f.Create("noop")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cmd.Execute()
	if cmd.(*countingCmd).count != 1 {
		t.Error("expected Execute to run on the created command")
	}
}

func TestMemMethodFactory_InvokeUnknown(t *testing.T) {
	f := taskcontext.NewMemMethodFactory()
	if _, err := f.Invoke("missing"); err == nil {
		t.Fatal("expected error for unregistered method")
	}
}

func TestMemMethodFactory_RegisterAndInvoke(t *testing.T) {
	f := taskcontext.NewMemMethodFactory()
	f.Register("double", func(args ...interface{}) (interface{}, error) {
		return args[0].(int) * 2, nil
	})

	result, err := f.Invoke("double", 21)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result.(int) != 42 {
		t.Errorf("result = %v, want 42", result)
	}
}

func TestMemDataSourceFactory_ReadUnknown(t *testing.T) {
	f := taskcontext.NewMemDataSourceFactory()
	if _, err := f.Read("missing"); err == nil {
		t.Fatal("expected error for unregistered data source")
	}
}

func TestMemDataSourceFactory_RegisterAndRead(t *testing.T) {
	f := taskcontext.NewMemDataSourceFactory()
	f.Register("temperature", func() (interface{}, error) { return 21.5, nil })

	v, err := f.Read("temperature")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v.(float64) != 21.5 {
		t.Errorf("v = %v, want 21.5", v)
	}
}
