package checks

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct {
	err error
}

func (f fakePinger) PingContext(ctx context.Context) error {
	return f.err
}

func TestSQL(t *testing.T) {
	status, err := SQL(fakePinger{}).Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !status.IsUp() {
		t.Errorf("State = %v, want UP", status.State)
	}
}

func TestSQL_PingFails(t *testing.T) {
	status, err := SQL(fakePinger{err: errors.New("connection refused")}).Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !status.IsDown() {
		t.Errorf("State = %v, want DOWN", status.State)
	}
	if status.Details["error"] != "connection refused" {
		t.Errorf("error = %v, want 'connection refused'", status.Details["error"])
	}
}
