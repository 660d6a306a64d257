package views

import (
	"strings"
	"testing"
)

func TestRenderTaskListSections(t *testing.T) {
	out := RenderTaskList(TaskListData{
		Items: []TaskItemData{
			{ID: 1, Name: "Call Bob", When: "15:00", Repeat: "never"},
			{ID: 2, Name: "Stretch", When: "07:30", Repeat: "daily", Done: true},
			{ID: 3, Name: "Pay rent", When: "09:00", Overdue: true},
		},
		SelectedID: 3,
	})
	upcoming := strings.Index(out, "Upcoming:")
	done := strings.Index(out, "Done:")
	if upcoming < 0 || done < upcoming {
		t.Fatalf("expected upcoming before done, got:\n%s", out)
	}
	if !strings.Contains(out, "> [RED] #3 Pay rent @09:00") {
		t.Fatalf("expected selected overdue row, got:\n%s", out)
	}
	if !strings.Contains(out, "[GREEN] #2 Stretch @07:30 ↻daily") {
		t.Fatalf("expected done repeating row, got:\n%s", out)
	}
	if strings.Index(out, "Stretch") < done {
		t.Fatalf("done task listed under upcoming:\n%s", out)
	}
}

func TestRenderTaskListEmpty(t *testing.T) {
	out := RenderTaskList(TaskListData{})
	if strings.Count(out, "(none)") != 2 {
		t.Fatalf("expected two empty sections, got:\n%s", out)
	}
}

func TestRenderAlert(t *testing.T) {
	if RenderAlert(AlertData{}) != "" {
		t.Fatal("expected no alert without a task")
	}
	out := RenderAlert(AlertData{Name: "Call Bob", When: "15:00", SnoozeMinutes: 5})
	if !strings.Contains(out, "Call Bob") || !strings.Contains(out, "snooze 5min") {
		t.Fatalf("unexpected alert: %q", out)
	}
}

func TestRenderAppIncludesAlertAndStatus(t *testing.T) {
	out := RenderApp(AppData{
		Header:     "remindd",
		LeftPane:   "tasks:",
		Alert:      "⏰ REMINDER",
		StatusLine: "status: ready",
	})
	for _, want := range []string{"remindd", "tasks:", "REMINDER", "status: ready"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderCommandPalette(t *testing.T) {
	if RenderCommandPalette(false, "add") != "" {
		t.Fatal("inactive palette should render nothing")
	}
	if got := RenderCommandPalette(true, "/add x"); got != "command: /add x" {
		t.Fatalf("unexpected palette: %q", got)
	}
}
