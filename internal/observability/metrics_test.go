package observability

import "testing"

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordNotification("closed_submitter", false)
	m.RecordNotification("closed_submitter", false)
	m.RecordNotification("closed_cc", true)
	m.RecordBulk("close", 2)
	m.RecordBulk("close", 1)
	m.RecordEvent("ticket_updated")

	snap := m.Snapshot()
	if got := snap["notifications"]["closed_submitter|ok"]; got != 2 {
		t.Errorf("closed_submitter|ok = %d, want 2", got)
	}
	if got := snap["notifications"]["closed_cc|failed"]; got != 1 {
		t.Errorf("closed_cc|failed = %d, want 1", got)
	}
	if got := snap["bulk"]["close"]; got != 3 {
		t.Errorf("bulk close = %d, want 3", got)
	}
	if got := snap["events"]["ticket_updated"]; got != 1 {
		t.Errorf("events ticket_updated = %d, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordNotification("updated_cc", false)
	m.RecordBulk("assign", 1)
	if m.Snapshot() != nil {
		t.Error("nil metrics should snapshot to nil")
	}
}
