package models

import (
	"encoding/json"
	"strings"
)

type AttendanceKind int

const (
	// AttendanceNone means no usable attendance data.
	AttendanceNone AttendanceKind = iota
	// AttendanceBool is the oldest encoding: a bare boolean flag meaning
	// "attended", without naming an event.
	AttendanceBool
	// AttendanceList names the attended events explicitly.
	AttendanceList
)

// Attendance is the normalized form of the legacy attended_events profile
// value.
type Attendance struct {
	Kind   AttendanceKind
	All    bool
	Events []string
}

// Contains reports whether the attendance covers the given event key. The
// boolean encoding applies to every event.
func (a Attendance) Contains(eventKey string) bool {
	switch a.Kind {
	case AttendanceBool:
		return a.All
	case AttendanceList:
		for _, e := range a.Events {
			if strings.EqualFold(e, eventKey) {
				return true
			}
		}
	}
	return false
}

// ParseAttendance normalizes the heterogeneous encodings the attended_events
// column accumulated over the years. The fallback chain is ordered: boolean
// literal, then JSON array string, then comma/pipe-delimited list.
func ParseAttendance(raw string) Attendance {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Attendance{Kind: AttendanceNone}
	}

	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return Attendance{Kind: AttendanceBool, All: true}
	case "false", "0", "no":
		return Attendance{Kind: AttendanceBool, All: false}
	}

	if strings.HasPrefix(raw, "[") {
		var events []string
		if err := json.Unmarshal([]byte(raw), &events); err == nil {
			return Attendance{Kind: AttendanceList, Events: trimAll(events)}
		}
		// Malformed JSON array falls through to the delimited parse.
	}

	sep := ","
	if strings.Contains(raw, "|") {
		sep = "|"
	}
	return Attendance{Kind: AttendanceList, Events: trimAll(strings.Split(raw, sep))}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
