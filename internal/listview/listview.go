// Package listview derives what the task list shows: which tasks pass the
// selected filter, in what order, and how each row is highlighted. Everything
// here is a pure function of the task snapshot, the filter and the current day.
package listview

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"studytodo/internal/domain"
	"studytodo/internal/dto"
)

// Filter selects which tasks are shown.
type Filter string

const (
	FilterAll         Filter = "all"
	FilterAssignments Filter = "assignments"
	FilterExams       Filter = "exams"
	FilterSoon        Filter = "soon"
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterAssignments, FilterExams, FilterSoon}

const (
	// SoonFilterDays is the inclusive upper bound of the "soon" filter.
	SoonFilterDays = 7
	// SoonHighlightDays is the inclusive upper bound for the "soon" row highlight.
	SoonHighlightDays = 3
)

// ParseFilter accepts a filter name; empty input means FilterAll.
func ParseFilter(s string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FilterAll, nil
	}
	for _, known := range Filters {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q (want all, assignments, exams or soon)", s)
}

// Midnight strips the time of day from t in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DueDay is the calendar day of a stored due date, placed at midnight in loc.
// Due dates are stored as UTC instants, so the UTC date is the calendar day.
func DueDay(due time.Time, loc *time.Location) time.Time {
	y, m, d := due.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysLeft returns whole days from today to due; 0 is due today, negative is
// overdue. ok is false when there is no due date.
func DaysLeft(due *time.Time, today time.Time) (days int, ok bool) {
	if due == nil {
		return 0, false
	}
	start := Midnight(today)
	diff := DueDay(*due, start.Location()).Sub(start)
	return int(math.Round(diff.Hours() / 24)), true
}

// Apply returns the tasks that pass f. The input slice is not modified.
func Apply(tasks []dto.TaskResponse, f Filter, today time.Time) []dto.TaskResponse {
	out := make([]dto.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		if keep(t, f, today) {
			out = append(out, t)
		}
	}
	return out
}

func keep(t dto.TaskResponse, f Filter, today time.Time) bool {
	switch f {
	case FilterAssignments:
		return t.Type == string(domain.TypeAssignment)
	case FilterExams:
		return t.Type == string(domain.TypeExam)
	case FilterSoon:
		d, ok := DaysLeft(t.Due, today)
		return ok && d >= 0 && d <= SoonFilterDays
	}
	return true
}

// Less is the display order: not done first, then tasks with a due date
// before tasks without one, then earlier due first.
func Less(a, b dto.TaskResponse) bool {
	if a.Done != b.Done {
		return !a.Done
	}
	switch {
	case a.Due == nil:
		return false
	case b.Due == nil:
		return true
	}
	return a.Due.Before(*b.Due)
}

// Sort orders tasks in place by Less, keeping the incoming order for ties.
func Sort(tasks []dto.TaskResponse) {
	sort.SliceStable(tasks, func(i, j int) bool { return Less(tasks[i], tasks[j]) })
}

// Row is one rendered task.
type Row struct {
	Task     dto.TaskResponse
	HasDue   bool
	DaysLeft int
	Overdue  bool
	Soon     bool
	DueText  string
}

// Class is the Bootstrap row class for the highlight state.
func (r Row) Class() string {
	var classes []string
	if r.Task.Done {
		classes = append(classes, "table-success")
	}
	if r.Overdue {
		classes = append(classes, "table-danger")
	}
	if r.Soon {
		classes = append(classes, "table-warning")
	}
	return strings.Join(classes, " ")
}

// View is the rendered list for one filter.
type View struct {
	Filter Filter
	Rows   []Row
}

// Empty reports whether nothing passed the filter.
func (v View) Empty() bool { return len(v.Rows) == 0 }

// Build filters, sorts and classifies snapshot for display.
func Build(snapshot []dto.TaskResponse, f Filter, today time.Time) View {
	items := Apply(snapshot, f, today)
	Sort(items)

	rows := make([]Row, len(items))
	for i, t := range items {
		rows[i] = NewRow(t, today)
	}
	return View{Filter: f, Rows: rows}
}

// NewRow classifies a single task relative to today.
func NewRow(t dto.TaskResponse, today time.Time) Row {
	r := Row{Task: t, DueText: "No due date"}
	d, ok := DaysLeft(t.Due, today)
	if !ok {
		return r
	}
	r.HasDue = true
	r.DaysLeft = d
	r.Overdue = d < 0 && !t.Done
	r.Soon = d >= 0 && d <= SoonHighlightDays && !t.Done
	r.DueText = fmt.Sprintf("%s (%s)", t.Due.UTC().Format(dto.DateLayout), relative(d))
	return r
}

func relative(d int) string {
	n := d
	if n < 0 {
		n = -n
	}
	unit := "days"
	if n == 1 {
		unit = "day"
	}
	if d < 0 {
		return fmt.Sprintf("%d %s ago", n, unit)
	}
	return fmt.Sprintf("%d %s left", n, unit)
}
