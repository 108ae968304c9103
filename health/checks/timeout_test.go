package checks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jwebframework/jweb/health"
)

func TestTimeout_Completes(t *testing.T) {
	check := Timeout(health.StatusFunc(func(ctx context.Context) health.Status {
		return health.Degraded("slow")
	}), time.Second)

	status, err := check.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if status.State != health.StateDegraded {
		t.Errorf("State = %v, want DEGRADED", status.State)
	}
}

func TestTimeout_Exceeded(t *testing.T) {
	check := Timeout(health.StatusFunc(func(ctx context.Context) health.Status {
		time.Sleep(200 * time.Millisecond)
		return health.Up()
	}), 20*time.Millisecond)

	start := time.Now()
	status, err := check.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Timeout should return promptly")
	}
	if !status.IsDown() || status.Message != "check timed out" {
		t.Errorf("status = %+v, want DOWN 'check timed out'", status)
	}
	if status.Details["timeout"] != "20ms" {
		t.Errorf("timeout detail = %v, want 20ms", status.Details["timeout"])
	}
}

func TestTimeout_PropagatesFailures(t *testing.T) {
	cause := errors.New("boom")
	check := Timeout(health.CheckFunc(func(ctx context.Context) (health.Status, error) {
		return health.Status{}, cause
	}), time.Second)

	if _, err := check.Check(context.Background()); !errors.Is(err, cause) {
		t.Errorf("error = %v, want %v", err, cause)
	}
}

func TestTimeout_RecoversPanicInBackground(t *testing.T) {
	check := Timeout(health.CheckFunc(func(ctx context.Context) (health.Status, error) {
		panic("boom")
	}), time.Second)

	_, err := check.Check(context.Background())
	var perr *health.PanicError
	if !errors.As(err, &perr) {
		t.Errorf("error = %T, want *health.PanicError", err)
	}
}

func TestTimeout_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	check := Timeout(health.StatusFunc(func(ctx context.Context) health.Status {
		<-ctx.Done()
		return health.Down("cancelled")
	}), time.Second)

	// Either the check or the cancelled context may be observed first.
	status, err := check.Check(ctx)
	if err == nil && status.IsUp() {
		t.Error("Check() with a cancelled parent should not report UP")
	}
}
