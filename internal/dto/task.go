package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for due dates.
const DateLayout = "2006-01-02"

// ErrInvalidDue is returned for a due value that is neither falsy nor a date.
var ErrInvalidDue = errors.New("due: use date (YYYY-MM-DD) or RFC3339 datetime")

// DueDate parses "due" from JSON as either date-only ("2006-01-02") or RFC3339.
// Date-only is stored as start of that day in UTC. Falsy values (null, "",
// false, 0) mean "no due date". Set records that the key was present at all.
type DueDate struct {
	t   *time.Time
	set bool
}

func (d *DueDate) UnmarshalJSON(data []byte) error {
	d.set = true
	d.t = nil

	raw := bytes.TrimSpace(data)
	switch string(raw) {
	case "null", "false", "0", `""`:
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ErrInvalidDue
	}
	parsed, err := ParseDue(s)
	if err != nil {
		return err
	}
	d.t = parsed
	return nil
}

// Ptr returns *time.Time for use in service/domain.
func (d DueDate) Ptr() *time.Time { return d.t }

// IsSet reports whether the due key was present in the body.
func (d DueDate) IsSet() bool { return d.set }

// NewDueDate builds a DueDate for outgoing requests; nil clears the date.
func NewDueDate(t *time.Time) DueDate { return DueDate{t: t, set: true} }

func (d DueDate) MarshalJSON() ([]byte, error) {
	if d.t == nil {
		return []byte("null"), nil
	}
	return json.Marshal(d.t.UTC().Format(time.RFC3339))
}

// ParseDue parses a due date string. Blank input yields nil.
func ParseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	layouts := []string{
		DateLayout,
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			if layout == DateLayout {
				parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			}
			return &parsed, nil
		}
	}
	return nil, ErrInvalidDue
}

type CreateTaskRequest struct {
	Title  string  `json:"title"`
	Course string  `json:"course"`
	Type   string  `json:"type"`
	Due    DueDate `json:"due"` // optional: "2025-03-10" or RFC3339
}

// UpdateTaskRequest is a partial update; nil / unset fields are left as is.
// Due is a value, not a pointer, so an explicit null still reaches UnmarshalJSON.
type UpdateTaskRequest struct {
	Title  *string `json:"title"`
	Course *string `json:"course"`
	Type   *string `json:"type"`
	Done   *bool   `json:"done"`
	Due    DueDate `json:"due"`
}

type TaskResponse struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Course    string     `json:"course"`
	Type      string     `json:"type"`
	Due       *time.Time `json:"due"`
	Done      bool       `json:"done"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type DeleteResponse struct {
	OK bool `json:"ok"`
}

type ClearCompletedResponse struct {
	Deleted int64 `json:"deleted"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
