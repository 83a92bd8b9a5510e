package notify

import (
	"strings"
	"time"
)

// Variant selects how a toast is styled.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// DefaultToastDuration is how long an informational notice stays visible.
const DefaultToastDuration = 5 * time.Second

const (
	urgentToastDuration = 10 * time.Second
	fallbackTitle       = "New Notification"
)

// Descriptor tells the presentation layer how to surface an Event.
type Descriptor struct {
	Title    string        `json:"title"`
	Variant  Variant       `json:"variant"`
	Duration time.Duration `json:"duration"`
	Icon     string        `json:"icon"`
}

var dispatchTable = map[string]Descriptor{
	TypeProjectDateReminder: {Title: "Project Date Reminder", Variant: VariantDefault, Duration: DefaultToastDuration},
	TypeProjectAssignment:   {Title: "New Project Assignment", Variant: VariantDefault, Duration: DefaultToastDuration},
	TypePhaseUpdate:         {Title: "Phase Update", Variant: VariantDefault, Duration: DefaultToastDuration},
	TypeDailyReportReminder: {Title: "Daily Report Reminder", Variant: VariantDestructive, Duration: urgentToastDuration},
}

// Classify maps an event to its presentation descriptor.
// It never fails: nil events and unknown types get an informational
// descriptor titled after the event itself, or a generic label.
func Classify(ev *Event) Descriptor {
	if ev == nil {
		return Descriptor{
			Title:    fallbackTitle,
			Variant:  VariantDefault,
			Duration: DefaultToastDuration,
			Icon:     priorityIcon(""),
		}
	}

	d, ok := dispatchTable[ev.Type]
	if !ok {
		title := strings.TrimSpace(ev.Title)
		if title == "" {
			title = fallbackTitle
		}
		d = Descriptor{Title: title, Variant: VariantDefault, Duration: DefaultToastDuration}
	}
	d.Icon = priorityIcon(ev.Priority)
	return d
}

func priorityIcon(p Priority) string {
	switch p {
	case PriorityHigh:
		return "🔴"
	case PriorityMedium:
		return "🟡"
	case PriorityLow:
		return "🟢"
	default:
		return "🔔"
	}
}
