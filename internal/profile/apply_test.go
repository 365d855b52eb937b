package profile

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/char5742/tabletctl/internal/config"
	"github.com/char5742/tabletctl/internal/runner"
	"github.com/char5742/tabletctl/internal/wacom"
	"github.com/char5742/tabletctl/internal/wacom/wacomtest"
)

func intPtr(v int) *int { return &v }

func newFake() *wacomtest.Fake {
	fake := wacomtest.New()
	fake.AddDevice("Wacom Intuos Pro M Pen stylus", 9, "STYLUS")
	fake.AddDevice("Wacom Intuos Pro M Pen eraser", 10, "ERASER")
	fake.AddDevice("Wacom Intuos Pro M Pad pad", 11, "PAD")
	return fake
}

func TestMatches(t *testing.T) {
	stylus := wacom.Device{Name: "Wacom Intuos Pro M Pen stylus", ID: 9, Kind: wacom.KindStylus}

	tests := []struct {
		name    string
		profile config.Profile
		want    bool
	}{
		{"substring", config.Profile{Match: "Pen stylus"}, true},
		{"no substring", config.Profile{Match: "Cintiq"}, false},
		{"kind match", config.Profile{Match: "Intuos", Kind: "STYLUS"}, true},
		{"kind lower case", config.Profile{Match: "Intuos", Kind: "stylus"}, true},
		{"kind mismatch", config.Profile{Match: "Intuos", Kind: "PAD"}, false},
		{"bad kind", config.Profile{Match: "Intuos", Kind: "CURSOR"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.profile, stylus); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApply_AllFields(t *testing.T) {
	fake := newFake()
	tablet := wacom.New(fake, "")

	profiles := []config.Profile{{
		Match:           "Pen stylus",
		PressureCurve:   []float64{0, 0.1, 0.9, 1},
		Threshold:       intPtr(40),
		CursorProximity: intPtr(20),
		Area:            []int{0, 0, 30000, 20000},
		Output:          "HDMI-1",
		Handedness:      "left",
	}}

	report, err := Apply(tablet, profiles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Applied) != 1 || report.Applied[0].ID != 9 || report.Skipped != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}

	want := []string{
		"9 PressureCurve 0 10 90 100",
		"9 Threshold 40",
		"9 CursorProximity 20",
		"9 Area 0 0 30000 20000",
		"9 MapToOutput HDMI-1",
		"9 Rotate 3",
	}
	if diff := cmp.Diff(want, fake.SetCalls()); diff != "" {
		t.Fatalf("set calls mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_OnlySetFields(t *testing.T) {
	fake := newFake()
	tablet := wacom.New(fake, "")

	_, err := Apply(tablet, []config.Profile{{Match: "Intuos Pro M Pen", Threshold: intPtr(5)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"9 Threshold 5", "10 Threshold 5"}
	if diff := cmp.Diff(want, fake.SetCalls()); diff != "" {
		t.Fatalf("set calls mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_ContinuesAfterDeviceFailure(t *testing.T) {
	fake := newFake()
	fake.FailOn("--set", "Rotate", "Value 'x' is not valid for Rotate")
	tablet := wacom.New(fake, "")

	report, err := Apply(tablet, []config.Profile{{Match: "Pen", Handedness: "left", Threshold: intPtr(8)}})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var toolErr *runner.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected tool error in chain, got %v", err)
	}
	if len(report.Applied) != 2 {
		t.Fatalf("both pen devices should be visited, got %+v", report)
	}

	for _, id := range []int{9, 10} {
		d, _ := fake.Device(id)
		if d.Threshold != 8 {
			t.Fatalf("device %d threshold not applied: %d", id, d.Threshold)
		}
	}
}

func TestApply_ListFailure(t *testing.T) {
	failing := wacom.New(runnerFunc(func(string, ...string) (runner.Result, error) {
		return runner.Result{Stderr: "Failed to connect to X server"}, nil
	}), "")

	report, err := Apply(failing, []config.Profile{{Match: "Pen", Threshold: intPtr(1)}})
	var toolErr *runner.ToolError
	if !errors.As(err, &toolErr) || toolErr.Message != "Failed to connect to X server" {
		t.Fatalf("expected tool error, got %v", err)
	}
	if len(report.Applied) != 0 {
		t.Fatalf("no devices should be applied: %+v", report)
	}
}

type runnerFunc func(name string, args ...string) (runner.Result, error)

func (f runnerFunc) Run(name string, args ...string) (runner.Result, error) {
	return f(name, args...)
}
