package movie

import (
	"fmt"
	"strings"
)

// Event is a named editing request posted by the host.
type Event int

const (
	EventNone Event = iota
	EventNewKeyframe
	EventReplaceKeyframe
	EventDeleteKeyframe
	EventNext
	EventPrevious
	EventPreviewStep
)

var eventNames = map[Event]string{
	EventNone:            "None",
	EventNewKeyframe:     "NewKeyframe",
	EventReplaceKeyframe: "ReplaceKeyframe",
	EventDeleteKeyframe:  "DeleteKeyframe",
	EventNext:            "Next",
	EventPrevious:        "Previous",
	EventPreviewStep:     "PreviewStep",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// ParseEvent maps an event name, case-insensitively, to its Event.
func ParseEvent(name string) (Event, error) {
	for ev, n := range eventNames {
		if ev != EventNone && strings.EqualFold(n, name) {
			return ev, nil
		}
	}
	return EventNone, fmt.Errorf("unknown event %q", name)
}
