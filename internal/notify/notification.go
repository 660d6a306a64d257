package notify

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sandeepkv93/remindd/internal/model"
)

var ErrPermissionDenied = errors.New("notify: permission denied")

const (
	TitlePrefix     = "⏰ REMINDER: "
	SnoozeTag       = "snooze-notification"
	SnoozeTitle     = "Reminder Snoozed"
	DefaultActionID = "default"
	timeLayout      = "Mon Jan 2 2006, 15:04"
)

type Action struct {
	ID    string
	Label string
}

// Payload is attached to a reminder notification and travels back with the
// user's interaction.
type Payload struct {
	ReminderID int64  `json:"reminderId"`
	TaskName   string `json:"taskName"`
	URL        string `json:"url"`
}

// Notification is a rendered system notification. Showing a notification
// with a Tag that is already visible replaces it.
type Notification struct {
	Title              string
	Body               string
	Tag                string
	Actions            []Action
	Payload            Payload
	RequireInteraction bool
}

func ReminderTag(id int64) string {
	return "reminder-" + strconv.FormatInt(id, 10)
}

// ForReminder renders the actionable notification for a due reminder.
func ForReminder(rec model.ReminderRecord, appURL string, snoozeMinutes int) Notification {
	if snoozeMinutes <= 0 {
		snoozeMinutes = model.DefaultSnoozeMinutes
	}
	return Notification{
		Title: TitlePrefix + rec.Name,
		Body:  "Time: " + rec.Time.Local().Format(timeLayout),
		Tag:   ReminderTag(rec.ID),
		Actions: []Action{
			{ID: model.NotificationActionDone, Label: "Mark Done"},
			{ID: model.NotificationActionSnooze, Label: fmt.Sprintf("Snooze %dmin", snoozeMinutes)},
		},
		Payload: Payload{
			ReminderID: rec.ID,
			TaskName:   rec.Name,
			URL:        appURL,
		},
		RequireInteraction: true,
	}
}

// SnoozeConfirmation is shown after a reminder is snoozed from a notification.
func SnoozeConfirmation(minutes int) Notification {
	return Notification{
		Title: SnoozeTitle,
		Body:  fmt.Sprintf("Reminder will appear again in %d minutes", minutes),
		Tag:   SnoozeTag,
	}
}

// TestNotification is shown by the test command.
func TestNotification(at time.Time) Notification {
	return Notification{
		Title: TitlePrefix + "Test reminder",
		Body:  "Time: " + at.Local().Format(timeLayout),
		Tag:   "reminder-test",
	}
}
