package models

import "fmt"

type RackStatus string

const (
	StatusEmpty          RackStatus = "empty"
	StatusHalfFull       RackStatus = "50-full"
	StatusMostlyFull     RackStatus = "75-full"
	StatusNoSpace        RackStatus = "no-space"
	StatusGroundNotReady RackStatus = "ground-not-ready"
)

// StatusInfo is the display configuration of a status.
type StatusInfo struct {
	Status    RackStatus
	Label     string
	Color     string
	Icon      string
	TextColor string
}

var statusTable = []StatusInfo{
	{StatusEmpty, "Empty", "#10b981", "✓", "text-white"},
	{StatusHalfFull, "50% Full", "#f59e0b", "◐", "text-white"},
	{StatusMostlyFull, "75% Full", "#f97316", "◕", "text-white"},
	{StatusNoSpace, "No Space", "#ef4444", "✕", "text-white"},
	{StatusGroundNotReady, "Ground Not Ready", "#facc15", "⚠", "text-black"},
}

// Statuses returns the legend in display order.
func Statuses() []StatusInfo {
	out := make([]StatusInfo, len(statusTable))
	copy(out, statusTable)
	return out
}

func (s RackStatus) Valid() bool {
	for _, info := range statusTable {
		if info.Status == s {
			return true
		}
	}
	return false
}

// HasNote reports whether the status carries a free-text reason.
func (s RackStatus) HasNote() bool {
	return s == StatusGroundNotReady
}

// Info returns the display configuration; unknown values fall back to empty.
func (s RackStatus) Info() StatusInfo {
	for _, info := range statusTable {
		if info.Status == s {
			return info
		}
	}
	return statusTable[0]
}

func ParseRackStatus(v string) (RackStatus, error) {
	s := RackStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown rack status %q", v)
	}
	return s, nil
}
