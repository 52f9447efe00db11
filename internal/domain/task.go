package domain

import "time"

// TaskType is the closed set of task kinds.
type TaskType string

const (
	TypeAssignment TaskType = "Assignment"
	TypeExam       TaskType = "Exam"
)

// Valid reports whether t is one of the known task types.
func (t TaskType) Valid() bool {
	return t == TypeAssignment || t == TypeExam
}

// ParseTaskType maps raw input onto a TaskType. Unknown values fall back to
// TypeAssignment instead of being rejected.
func ParseTaskType(s string) TaskType {
	if t := TaskType(s); t.Valid() {
		return t
	}
	return TypeAssignment
}

// Task is the domain entity.
// Не зависит от Gin, Mongo, Postgres, Redis.
type Task struct {
	ID     string
	Title  string
	Course string
	Type   TaskType
	Due    *time.Time
	Done   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskPatch holds the fields of a partial update. Nil pointers are left
// untouched; DueSet distinguishes "clear the due date" from "not provided".
type TaskPatch struct {
	Title  *string
	Course *string
	Type   *TaskType
	Done   *bool
	Due    *time.Time
	DueSet bool
}

// ListLess orders tasks the way List returns them: not done first, then by due
// date with missing due dates last, then newest first.
func ListLess(a, b Task) bool {
	if a.Done != b.Done {
		return !a.Done
	}
	switch {
	case a.Due == nil && b.Due != nil:
		return false
	case a.Due != nil && b.Due == nil:
		return true
	case a.Due != nil && b.Due != nil && !a.Due.Equal(*b.Due):
		return a.Due.Before(*b.Due)
	}
	return a.CreatedAt.After(b.CreatedAt)
}
