package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             20 * time.Millisecond,
		MaxRequestsHalfOpen: 2,
	}
}

func TestExecute_PassesThroughWhenClosed(t *testing.T) {
	cb := New(testConfig())

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("state = %v, want closed", cb.GetState())
	}
}

func TestOpensAfterFailureThreshold(t *testing.T) {
	cb := New(testConfig())
	failing := func() error { return errors.New("boom") }

	for i := 0; i < 3; i++ {
		cb.Execute(failing)
	}

	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open after %d failures", cb.GetState(), 3)
	}

	// Requests while open are rejected without executing
	executed := false
	err := cb.Execute(func() error {
		executed = true
		return nil
	})
	var openErr *ErrOpen
	if !errors.As(err, &openErr) {
		t.Fatalf("error = %v, want ErrOpen", err)
	}
	if executed {
		t.Error("function should not execute while circuit is open")
	}
}

func TestHalfOpenRecovery(t *testing.T) {
	cb := New(testConfig())
	failing := func() error { return errors.New("boom") }

	for i := 0; i < 3; i++ {
		cb.Execute(failing)
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open", cb.GetState())
	}

	time.Sleep(25 * time.Millisecond)

	// Two successes in half-open close the circuit
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("first half-open request failed: %v", err)
	}
	if cb.GetState() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open", cb.GetState())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("second half-open request failed: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("state = %v, want closed after recovery", cb.GetState())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(testConfig())
	failing := func() error { return errors.New("boom") }

	for i := 0; i < 3; i++ {
		cb.Execute(failing)
	}
	time.Sleep(25 * time.Millisecond)

	cb.Execute(failing)

	if cb.GetState() != StateOpen {
		t.Errorf("state = %v, want open after half-open failure", cb.GetState())
	}
}

func TestReset(t *testing.T) {
	cb := New(testConfig())
	for i := 0; i < 3; i++ {
		cb.Execute(func() error { return errors.New("boom") })
	}
	cb.Reset()
	if cb.GetState() != StateClosed {
		t.Errorf("state = %v, want closed after reset", cb.GetState())
	}
}
