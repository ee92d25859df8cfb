package observ

import (
	"strings"
	"testing"
)

func TestTimerReportAndCounters(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("infer")
	tm.End(idx, "3 functions")
	tm.End(42, "ignored")
	tm.Count("diagnostics.type", 2)
	tm.Count("diagnostics.type", 1)

	report := tm.Report()
	if len(report.Phases) != 1 || report.Phases[0].Note != "3 functions" {
		t.Fatalf("unexpected phases: %+v", report.Phases)
	}
	if report.Counters["diagnostics.type"] != 3 {
		t.Fatalf("counter = %d, want 3", report.Counters["diagnostics.type"])
	}
	summary := tm.Summary()
	if !strings.Contains(summary, "infer") || !strings.Contains(summary, "diagnostics.type") {
		t.Fatalf("summary missing entries:\n%s", summary)
	}
	var nilTimer *Timer
	nilTimer.Count("x", 1)
	if nilTimer.Begin("x") != -1 {
		t.Fatalf("nil timer must be inert")
	}
}
