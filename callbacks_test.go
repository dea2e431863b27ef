package gameanalytics

import (
	"errors"
	"testing"

	"github.com/SebastienMelki/gameanalytics/internal/transport"
)

func TestReport_SeverityGate(t *testing.T) {
	c, _ := newTestClient(t, newMockDispatcher())

	var got []string
	c.RegisterErrorCallback(ErrorCallbackFunc(func(err *SDKError) {
		got = append(got, err.Code)
	}))

	c.report(&SDKError{Code: "debug-only", Severity: SeverityDebug})
	c.report(&SDKError{Code: ErrCodeValidationFailed, Severity: SeverityWarning})
	c.report(&SDKError{Code: ErrCodeNetworkError, Severity: SeverityCritical})
	c.report(nil)

	if len(got) != 2 || got[0] != ErrCodeValidationFailed || got[1] != ErrCodeNetworkError {
		t.Errorf("callbacks saw %v, want warning and critical only", got)
	}
}

func TestUnregisterErrorCallbacks(t *testing.T) {
	c, _ := newTestClient(t, newMockDispatcher())

	calls := 0
	c.RegisterErrorCallback(ErrorCallbackFunc(func(*SDKError) { calls++ }))
	c.RegisterErrorCallback(nil)
	c.UnregisterErrorCallbacks()

	c.report(&SDKError{Code: ErrCodeServerError, Severity: SeverityCritical})
	if calls != 0 {
		t.Errorf("callback called %d times after unregister", calls)
	}
}

func TestSDKError_Unwrap(t *testing.T) {
	err := &SDKError{Code: ErrCodeNetworkError, Message: "boom", err: transport.ErrRequestFailed}
	if !errors.Is(err, transport.ErrRequestFailed) {
		t.Error("SDKError does not unwrap to the transport error")
	}
	if err.Error() != "boom" {
		t.Errorf("Error() = %q, want boom", err.Error())
	}
}

func TestErrorSeverity_String(t *testing.T) {
	tests := map[ErrorSeverity]string{
		SeverityDebug:    "debug",
		SeverityWarning:  "warning",
		SeverityCritical: "critical",
		ErrorSeverity(9): "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
}
