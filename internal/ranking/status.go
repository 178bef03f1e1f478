package ranking

import "fmt"

// Status is a candidate's per-job triage state. Any status may move to any
// other status at any time: a recruiter may restore a rejected candidate or
// re-reject a saved one, so there are no forbidden edges.
type Status string

const (
	StatusActive   Status = "active"
	StatusSaved    Status = "saved"
	StatusRejected Status = "rejected"
)

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusActive, StatusSaved, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown candidate status %q", s)
}

// Statuses lists every valid disposition, in display order.
func Statuses() []Status {
	return []Status{StatusActive, StatusSaved, StatusRejected}
}
