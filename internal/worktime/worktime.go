package worktime

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// TimeOfDay is a wall-clock reading with second precision.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// At returns the wall-clock reading of t in its own location.
func At(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

func ParseTimeOfDay(input string) (TimeOfDay, error) {
	for _, layout := range []string{TimeLayout, "15:04"} {
		t, err := time.Parse(layout, input)
		if err == nil {
			return At(t), nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q", input)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	v, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Short renders the reading as HH:MM.
func (t TimeOfDay) Short() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On anchors the reading to the calendar date of day. The result carries
// no zone offset so that arithmetic ignores daylight-saving transitions.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, t.Second, 0, time.UTC)
}

// Compute returns the time worked between entry and exit on day. An exit
// earlier than the entry is an overnight shift and is counted against the
// following day. Without both readings the duration is nil and the record
// is not complete.
func Compute(day time.Time, entry, exit *TimeOfDay) (*time.Duration, bool) {
	if entry == nil || exit == nil {
		return nil, false
	}
	in := entry.On(day)
	out := exit.On(day)
	if out.Before(in) {
		out = out.AddDate(0, 0, 1)
	}
	worked := out.Sub(in)
	return &worked, true
}

// Day returns the calendar date of t, as seen in t's location, at UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func ParseDate(input string) (time.Time, error) {
	return time.Parse(DateLayout, input)
}

func FormatDate(day time.Time) string {
	return day.Format(DateLayout)
}
