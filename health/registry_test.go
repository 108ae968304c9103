package health

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
)

func upCheck() Check {
	return StatusFunc(func(ctx context.Context) Status { return Up() })
}

func TestRegistry_RegisterAddsGeneralAndReadiness(t *testing.T) {
	reg := NewRegistry()
	reg.Register("db", upCheck())

	if names := reg.Names(SetGeneral); !slices.Equal(names, []string{"db"}) {
		t.Errorf("general = %v, want [db]", names)
	}
	if names := reg.Names(SetReadiness); !slices.Equal(names, []string{"db"}) {
		t.Errorf("readiness = %v, want [db]", names)
	}
	if names := reg.Names(SetLiveness); len(names) != 0 {
		t.Errorf("liveness = %v, want empty", names)
	}
}

func TestRegistry_SingleSetRegistration(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterLiveness("ping", upCheck())
	reg.RegisterReadiness("warmup", upCheck())

	if names := reg.Names(SetGeneral); len(names) != 0 {
		t.Errorf("general = %v, want empty", names)
	}
	if names := reg.Names(SetLiveness); !slices.Equal(names, []string{"ping"}) {
		t.Errorf("liveness = %v, want [ping]", names)
	}
	if names := reg.Names(SetReadiness); !slices.Equal(names, []string{"warmup"}) {
		t.Errorf("readiness = %v, want [warmup]", names)
	}
}

func TestRegistry_RegisterDuplicateKeepsPosition(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", StatusFunc(func(ctx context.Context) Status { return Up().WithMessage("first") }))
	reg.Register("b", upCheck())
	reg.Register("a", StatusFunc(func(ctx context.Context) Status { return Up().WithMessage("second") }))

	if names := reg.Names(SetGeneral); !slices.Equal(names, []string{"a", "b"}) {
		t.Errorf("general = %v, want [a b]", names)
	}

	report, err := reg.CheckComponent(context.Background(), "a")
	if err != nil {
		t.Fatalf("CheckComponent() error = %v", err)
	}
	if report.Status.Message != "second" {
		t.Errorf("Message = %v, want 'second' (replacement)", report.Status.Message)
	}
}

func TestRegistry_SameNameDifferentChecksPerSet(t *testing.T) {
	reg := NewRegistry()
	reg.Register("db", StatusFunc(func(ctx context.Context) Status { return Up() }))
	reg.RegisterLiveness("db", StatusFunc(func(ctx context.Context) Status { return Down("liveness view") }))

	ctx := context.Background()
	if got := reg.Check(ctx).State; got != StateUp {
		t.Errorf("Check() = %v, want UP", got)
	}
	if got := reg.CheckLiveness(ctx).State; got != StateDown {
		t.Errorf("CheckLiveness() = %v, want DOWN", got)
	}
}

func TestRegistry_UnregisterRemovesFromAllSets(t *testing.T) {
	reg := NewRegistry()
	reg.Register("db", upCheck())
	reg.RegisterLiveness("db", upCheck())
	reg.RegisterReadiness("db", upCheck())

	reg.Unregister("db")

	for _, set := range []Set{SetGeneral, SetLiveness, SetReadiness} {
		if names := reg.Names(set); len(names) != 0 {
			t.Errorf("%v = %v, want empty", set, names)
		}
	}

	// Unknown names are ignored.
	reg.Unregister("missing")
}

func TestRegistry_Clear(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", StatusFunc(func(ctx context.Context) Status { return Down("x") }))
	reg.RegisterLiveness("b", upCheck())
	reg.RegisterReadiness("c", upCheck())

	reg.Clear()

	fresh := NewRegistry()
	ctx := context.Background()
	for _, pair := range []struct {
		name      string
		got, want Report
	}{
		{"check", reg.Check(ctx), fresh.Check(ctx)},
		{"liveness", reg.CheckLiveness(ctx), fresh.CheckLiveness(ctx)},
		{"readiness", reg.CheckReadiness(ctx), fresh.CheckReadiness(ctx)},
	} {
		if pair.got.State != pair.want.State || len(pair.got.Components) != len(pair.want.Components) {
			t.Errorf("%s after Clear = %+v, want %+v", pair.name, pair.got, pair.want)
		}
	}
}

func TestRegistry_NamesUnknownSet(t *testing.T) {
	reg := NewRegistry()
	if names := reg.Names(Set(9)); names != nil {
		t.Errorf("Names(unknown) = %v, want nil", names)
	}
}

func TestSet_String(t *testing.T) {
	tests := map[Set]string{
		SetGeneral:   "health",
		SetLiveness:  "liveness",
		SetReadiness: "readiness",
		Set(9):       "unknown",
	}
	for set, want := range tests {
		if got := set.String(); got != want {
			t.Errorf("Set(%d).String() = %v, want %v", int(set), got, want)
		}
	}
}

func TestRegistry_ConcurrentRegisterAndCheck(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("check%d", i%5)
		wg.Add(3)
		go func() {
			defer wg.Done()
			reg.Register(name, upCheck())
		}()
		go func() {
			defer wg.Done()
			reg.Unregister(name)
		}()
		go func() {
			defer wg.Done()
			_ = reg.Check(ctx)
			_ = reg.CheckReadiness(ctx)
			_, _ = reg.CheckComponent(ctx, name)
		}()
	}

	wg.Wait()

	general := reg.Names(SetGeneral)
	readiness := reg.Names(SetReadiness)
	for _, name := range general {
		if !slices.Contains(readiness, name) {
			t.Errorf("%q registered in general but not readiness", name)
		}
	}
}
