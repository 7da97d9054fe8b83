package utils

import (
	"fmt"
	"math"
	"time"
)

// MessageType is a custom type used as a placeholder for various message types.
type MessageType int

// The message types used across the CLI application.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

// Colors used across the CLI application.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
)

// DecorateText shows the message types in different colors.
func DecorateText(s string, msgType MessageType) string {
	switch msgType {
	case DefaultMessage:
		s = DefaultColor + s
	case StatusMessage:
		s = StatusColor + s
	case SuccessMessage:
		s = SuccessColor + s
	case ErrorMessage:
		s = ErrorColor + s
	default:
		return s
	}
	return s + DefaultColor
}

// FormatTime formats time.Duration output to a human readable value.
func FormatTime(d time.Duration) string {
	if d.Seconds() < 60.0 {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	seconds := math.Mod(d.Seconds(), 60)
	if d.Minutes() < 60.0 {
		return fmt.Sprintf("%dm %.2fs", int64(d.Minutes()), seconds)
	}
	minutes := int64(math.Mod(d.Minutes(), 60))
	if d.Hours() < 24.0 {
		return fmt.Sprintf("%dh %dm %.2fs", int64(d.Hours()), minutes, seconds)
	}
	hours := int64(math.Mod(d.Hours(), 24))
	return fmt.Sprintf("%dd %dh %dm %.2fs", int64(d.Hours()/24), hours, minutes, seconds)
}
