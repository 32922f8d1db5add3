package calendar

import (
	"time"

	"github.com/bikeshedbot/bikeshed/pkg/types"
)

// Fixed reminder policy for proposed meetings.
const (
	reminderEmailMinutes = 60
	reminderPopupMinutes = 15
)

// Event is the Calendar v3 event payload.
type Event struct {
	Summary     string          `json:"summary"`
	Description string          `json:"description,omitempty"`
	Start       EventTime       `json:"start"`
	End         EventTime       `json:"end"`
	Attendees   []EventAttendee `json:"attendees,omitempty"`
	Reminders   *EventReminders `json:"reminders,omitempty"`
}

// EventTime is a zoned event boundary.
type EventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

// EventAttendee is an invited participant.
type EventAttendee struct {
	Email string `json:"email"`
}

// EventReminders overrides the calendar's default reminders.
type EventReminders struct {
	Overrides  []ReminderOverride `json:"overrides"`
	UseDefault bool               `json:"useDefault"`
}

// ReminderOverride is a single reminder rule.
type ReminderOverride struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

// EventFromProposal builds the event payload for a meeting proposal. End time
// is start plus the topic's meeting length; reminders are fixed at an email
// 60 minutes prior and a popup 15 minutes prior.
func EventFromProposal(p types.MeetingProposal, description string) *Event {
	end := p.Start.Add(time.Duration(p.Minutes) * time.Minute)
	zone := p.Start.Location().String()

	attendees := make([]EventAttendee, 0, len(p.Attendees))
	for _, email := range p.Attendees {
		attendees = append(attendees, EventAttendee{Email: email})
	}

	return &Event{
		Summary:     p.Title,
		Description: description,
		Start:       EventTime{DateTime: p.Start.Format(time.RFC3339), TimeZone: zone},
		End:         EventTime{DateTime: end.Format(time.RFC3339), TimeZone: zone},
		Attendees:   attendees,
		Reminders: &EventReminders{
			UseDefault: false,
			Overrides: []ReminderOverride{
				{Method: "email", Minutes: reminderEmailMinutes},
				{Method: "popup", Minutes: reminderPopupMinutes},
			},
		},
	}
}
