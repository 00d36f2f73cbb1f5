package governor

import (
	"errors"
	"testing"
)

func TestNewReasoningSignal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		intent     string
		confidence float64
		wantErr    bool
	}{
		{"valid mid-range", "tutor", 0.9, false},
		{"valid zero", "fast", 0, false},
		{"valid one", "tutor", 1, false},
		{"confidence above range", "tutor", 1.01, true},
		{"confidence below range", "tutor", -0.01, true},
		{"empty intent", "", 0.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sig, err := NewReasoningSignal(tt.intent, tt.confidence, nil)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSignal) {
					t.Errorf("NewReasoningSignal() error = %v, want ErrInvalidSignal", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewReasoningSignal() unexpected error: %v", err)
			}
			if sig.Intent != tt.intent || sig.Confidence != tt.confidence {
				t.Errorf("signal = %+v, want intent=%q confidence=%v", sig, tt.intent, tt.confidence)
			}
		})
	}
}

func TestNewReasoningSignal_NeverClamps(t *testing.T) {
	t.Parallel()

	// An out-of-range confidence must be rejected outright, not pulled
	// into range: clamping would mask a reasoner bug.
	if _, err := NewReasoningSignal("tutor", 2.0, nil); err == nil {
		t.Error("expected rejection for confidence 2.0")
	}
}

func TestMustReasoningSignal_PanicsOnInvalid(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustReasoningSignal("tutor", -1, nil)
}
