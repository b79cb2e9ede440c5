package vmcore

import (
	"math"
	"testing"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateShutdown, "Shutdown"},
		{StateInitializing, "Initializing"},
		{StatePaused, "Paused"},
		{StateRunning, "Running"},
		{StateResetting, "Resetting"},
		{StateStopping, "Stopping"},
		{State(42), "Unknown"},
	}

	for _, tc := range tests {
		if got := tc.state.String(); got != tc.expected {
			t.Errorf("State(%d).String() = %q, want %q", int(tc.state), got, tc.expected)
		}
	}
}

func TestStateValid(t *testing.T) {
	if !StateStopping.Valid() {
		t.Error("StateStopping should be valid")
	}
	if State(-1).Valid() {
		t.Error("State(-1) should not be valid")
	}
	if State(6).Valid() {
		t.Error("State(6) should not be valid")
	}
}

func TestSourceKindString(t *testing.T) {
	if SourceIso.String() != "Iso" {
		t.Errorf("expected Iso, got %s", SourceIso)
	}
	if SourceKind(99).String() != "Unknown" {
		t.Errorf("expected Unknown, got %s", SourceKind(99))
	}
}

func TestUIScaleFor(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		expected float64
	}{
		{"1080p", 1920, 1.8},
		{"4K", 3840, 3.6},
		{"zero width", 0, 1.0},
		{"negative width", -1, 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := UIScaleFor(tc.width)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("UIScaleFor(%d) = %f, want %f", tc.width, got, tc.expected)
			}
		})
	}
}

func TestSurfacelessInfo(t *testing.T) {
	wi := SurfacelessInfo()
	if wi.Type != Surfaceless {
		t.Errorf("expected Surfaceless, got %s", wi.Type)
	}
	if wi.String() != "Surfaceless" {
		t.Errorf("unexpected String(): %s", wi.String())
	}
}
