package listview

import (
	"testing"
	"time"

	"studytodo/internal/dto"
)

func due(s string) *time.Time {
	t, err := dto.ParseDue(s)
	if err != nil {
		panic(err)
	}
	return t
}

// today returns 2025-03-10 at an arbitrary afternoon hour, local time.
func today() time.Time {
	return time.Date(2025, 3, 10, 15, 42, 0, 0, time.Local)
}

func titles(tasks []dto.TaskResponse) []string {
	out := make([]string, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Title
	}
	return out
}

func TestParseFilter(t *testing.T) {
	for in, want := range map[string]Filter{"": FilterAll, "all": FilterAll, "Soon": FilterSoon, " exams ": FilterExams, "assignments": FilterAssignments} {
		got, err := ParseFilter(in)
		if err != nil || got != want {
			t.Fatalf("ParseFilter(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseFilter("later"); err == nil {
		t.Fatalf("ParseFilter(later) err=nil, want error")
	}
}

func TestDaysLeft(t *testing.T) {
	cases := []struct {
		due  string
		want int
	}{
		{"2025-03-10", 0},
		{"2025-03-11", 1},
		{"2025-03-17", 7},
		{"2025-03-09", -1},
		{"2025-02-28", -10},
		{"2025-04-10", 31},
	}
	for _, tc := range cases {
		got, ok := DaysLeft(due(tc.due), today())
		if !ok || got != tc.want {
			t.Fatalf("DaysLeft(%s)=%d,%v want %d", tc.due, got, ok, tc.want)
		}
	}
	if _, ok := DaysLeft(nil, today()); ok {
		t.Fatalf("DaysLeft(nil) ok=true, want false")
	}
}

func TestDaysLeft_AcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz data unavailable: %v", err)
	}
	// DST starts 2025-03-09 in New York; that day has 23 hours.
	now := time.Date(2025, 3, 8, 9, 0, 0, 0, loc)
	got, _ := DaysLeft(due("2025-03-10"), now)
	if got != 2 {
		t.Fatalf("DaysLeft across DST=%d, want 2", got)
	}
}

func TestApply_SoonWindow(t *testing.T) {
	tasks := []dto.TaskResponse{
		{Title: "today", Due: due("2025-03-10")},
		{Title: "week", Due: due("2025-03-17")},
		{Title: "eight", Due: due("2025-03-18")},
		{Title: "yesterday", Due: due("2025-03-09")},
		{Title: "none"},
	}
	got := titles(Apply(tasks, FilterSoon, today()))
	if len(got) != 2 || got[0] != "today" || got[1] != "week" {
		t.Fatalf("soon filter=%v, want [today week]", got)
	}
}

func TestApply_ByType(t *testing.T) {
	tasks := []dto.TaskResponse{
		{Title: "hw", Type: "Assignment"},
		{Title: "final", Type: "Exam"},
		{Title: "lab", Type: "Assignment"},
	}
	if got := titles(Apply(tasks, FilterAssignments, today())); len(got) != 2 || got[0] != "hw" || got[1] != "lab" {
		t.Fatalf("assignments=%v", got)
	}
	if got := titles(Apply(tasks, FilterExams, today())); len(got) != 1 || got[0] != "final" {
		t.Fatalf("exams=%v", got)
	}
	if got := Apply(tasks, FilterAll, today()); len(got) != 3 {
		t.Fatalf("all=%d, want 3", len(got))
	}
}

func TestSort_DisplayOrder(t *testing.T) {
	tasks := []dto.TaskResponse{
		{Title: "done-early", Done: true, Due: due("2025-03-01")},
		{Title: "open-none-1"},
		{Title: "open-late", Due: due("2025-03-20")},
		{Title: "open-none-2"},
		{Title: "open-early", Due: due("2025-03-11")},
		{Title: "done-none", Done: true},
	}
	Sort(tasks)

	want := []string{"open-early", "open-late", "open-none-1", "open-none-2", "done-early", "done-none"}
	got := titles(tasks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order=%v, want %v", got, want)
		}
	}
}

func TestNewRow_Classification(t *testing.T) {
	cases := []struct {
		name     string
		task     dto.TaskResponse
		overdue  bool
		soon     bool
		dueText  string
		rowClass string
	}{
		{"overdue", dto.TaskResponse{Due: due("2025-03-08")}, true, false, "2025-03-08 (2 days ago)", "table-danger"},
		{"due today", dto.TaskResponse{Due: due("2025-03-10")}, false, true, "2025-03-10 (0 days left)", "table-warning"},
		{"three days", dto.TaskResponse{Due: due("2025-03-13")}, false, true, "2025-03-13 (3 days left)", "table-warning"},
		{"four days", dto.TaskResponse{Due: due("2025-03-14")}, false, false, "2025-03-14 (4 days left)", ""},
		{"one day", dto.TaskResponse{Due: due("2025-03-11")}, false, true, "2025-03-11 (1 day left)", "table-warning"},
		{"one day ago", dto.TaskResponse{Due: due("2025-03-09")}, true, false, "2025-03-09 (1 day ago)", "table-danger"},
		{"done overdue", dto.TaskResponse{Done: true, Due: due("2025-03-01")}, false, false, "2025-03-01 (9 days ago)", "table-success"},
		{"no due", dto.TaskResponse{}, false, false, "No due date", ""},
	}
	for _, tc := range cases {
		r := NewRow(tc.task, today())
		if r.Overdue != tc.overdue || r.Soon != tc.soon {
			t.Fatalf("%s: overdue=%v soon=%v, want %v %v", tc.name, r.Overdue, r.Soon, tc.overdue, tc.soon)
		}
		if r.DueText != tc.dueText {
			t.Fatalf("%s: due text=%q, want %q", tc.name, r.DueText, tc.dueText)
		}
		if r.Class() != tc.rowClass {
			t.Fatalf("%s: class=%q, want %q", tc.name, r.Class(), tc.rowClass)
		}
	}
}

func TestBuild_PureAndFiltered(t *testing.T) {
	snapshot := []dto.TaskResponse{
		{ID: "1", Title: "later", Type: "Exam", Due: due("2025-03-30")},
		{ID: "2", Title: "soon", Type: "Exam", Due: due("2025-03-12")},
		{ID: "3", Title: "hw", Type: "Assignment"},
	}

	v := Build(snapshot, FilterExams, today())
	if v.Filter != FilterExams || len(v.Rows) != 2 {
		t.Fatalf("Build()=%+v, want 2 exam rows", v)
	}
	if v.Rows[0].Task.Title != "soon" || v.Rows[1].Task.Title != "later" {
		t.Fatalf("rows=%v %v, want soon then later", v.Rows[0].Task.Title, v.Rows[1].Task.Title)
	}
	if snapshot[0].ID != "1" || snapshot[1].ID != "2" {
		t.Fatalf("Build() reordered the snapshot")
	}

	if empty := Build(nil, FilterSoon, today()); !empty.Empty() {
		t.Fatalf("Build(nil).Empty()=false, want true")
	}
}
