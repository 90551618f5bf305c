package worktime

import (
	"fmt"
	"time"
)

// Format renders d as H:MM:SS, dropping sub-second precision.
func Format(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}

// FormatShort renders d as H:MM when it has no seconds, H:MM:SS otherwise.
func FormatShort(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if seconds == 0 {
		return fmt.Sprintf("%d:%02d", hours, minutes)
	}
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}

// FormatPtr is Format for an optional duration; nil renders as zero.
func FormatPtr(d *time.Duration) string {
	if d == nil {
		return Format(0)
	}
	return Format(*d)
}
