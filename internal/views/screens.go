package views

import (
	"fmt"
	"strings"
)

type TaskItemData struct {
	ID      int64
	Name    string
	When    string
	Repeat  string
	Done    bool
	Overdue bool
}

type TaskListData struct {
	Items      []TaskItemData
	SelectedID int64
}

type AlertData struct {
	Name          string
	When          string
	SnoozeMinutes int
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

func RenderTaskList(data TaskListData) string {
	pending := make([]TaskItemData, 0, len(data.Items))
	done := make([]TaskItemData, 0)
	for _, item := range data.Items {
		if item.Done {
			done = append(done, item)
		} else {
			pending = append(pending, item)
		}
	}

	var b strings.Builder
	b.WriteString("tasks:\n")
	b.WriteString("actions: [j/k]move [space]toggle [s]snooze [x]delete [/]command\n")
	renderTaskSection(&b, "Upcoming", pending, data.SelectedID)
	renderTaskSection(&b, "Done", done, data.SelectedID)
	return strings.TrimSpace(b.String())
}

func RenderAlert(data AlertData) string {
	if data.Name == "" {
		return ""
	}
	return fmt.Sprintf("⏰ REMINDER\n\n%s\n%s\n\n[d] done   [s] snooze %dmin   [esc] dismiss",
		data.Name, data.When, data.SnoozeMinutes)
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

// RenderHelpPanel renders the bindings as markdown followed by the compact
// bubbles help line.
func RenderHelpPanel(data HelpPanelData) string {
	var md strings.Builder
	md.WriteString("## Keys\n\n")
	for _, line := range data.Bindings {
		md.WriteString("- " + line + "\n")
	}
	md.WriteString("\n## Commands\n\n")
	md.WriteString("- `add <name> @ <when> [never|daily|weekly|monthly]`\n")
	md.WriteString("- `edit <id> <name> @ <when> [repeat]`\n")
	md.WriteString("- `done <id>`, `undo <id>`, `delete <id>`\n")
	md.WriteString("- `snooze <id> [minutes]`\n")
	md.WriteString("- `test` shows a notification and a reminder 10s out\n")
	md.WriteString("\n`<when>` is `15:04`, `2006-01-02 15:04`, RFC3339 or `+10m`.\n")
	return strings.TrimSpace(RenderMarkdown(md.String()) + "\n" + data.HelpView)
}

func renderTaskSection(b *strings.Builder, title string, items []TaskItemData, selectedID int64) {
	b.WriteString(fmt.Sprintf("\n%s:\n", title))
	if len(items) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, item := range items {
		cursor := " "
		if selectedID == item.ID {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s #%d %s @%s", cursor, badge(item), item.ID, item.Name, item.When))
		if item.Repeat != "" && item.Repeat != "never" {
			b.WriteString(" ↻" + item.Repeat)
		}
		b.WriteString("\n")
	}
}

func badge(item TaskItemData) string {
	switch {
	case item.Done:
		return "[GREEN]"
	case item.Overdue:
		return "[RED]"
	default:
		return "[YELLOW]"
	}
}
