package project

import (
	"strings"
	"testing"
	"time"

	"glp/internal/domain/validation"
)

func validProject() Project {
	return Project{
		Title:       "Mentorship Drive",
		Description: "A ten-week mentorship pilot program",
		Status:      StatusPlanning,
		Priority:    PriorityMedium,
	}
}

func date(s string) time.Time {
	t, _ := time.Parse(DateLayout, s)
	return t
}

// TestValidate_Valid verifies a valid project passes.
func TestValidate_Valid(t *testing.T) {
	p := validProject()
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestValidate_Rules verifies field rules and messages.
func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Project)
		want   string
	}{
		{"empty title", func(p *Project) { p.Title = "" }, "Title is required"},
		{"short title", func(p *Project) { p.Title = "ab" }, "Title must be at least 3 characters"},
		{"long title", func(p *Project) { p.Title = strings.Repeat("x", 201) }, "Title must not exceed 200 characters"},
		{"short description", func(p *Project) { p.Description = "too short" }, "Description must be at least 10 characters"},
		{"bad status", func(p *Project) { p.Status = "archived" }, "Status must be one of"},
		{"bad priority", func(p *Project) { p.Priority = "critical" }, "Priority must be one of"},
		{"end equals start", func(p *Project) {
			p.StartDate = date("2026-03-01")
			p.EndDate = date("2026-03-01")
		}, "End date must be after start date"},
		{"end before start", func(p *Project) {
			p.StartDate = date("2026-03-10")
			p.EndDate = date("2026-03-01")
		}, "End date must be after start date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProject()
			tt.mutate(&p)
			msgs := validation.Messages(p.Validate())
			if len(msgs) == 0 {
				t.Fatal("expected validation failure")
			}
			if !strings.Contains(strings.Join(msgs, "|"), tt.want) {
				t.Errorf("messages %v do not contain %q", msgs, tt.want)
			}
		})
	}
}

// TestValidate_SingleDateAllowed verifies a lone start or end date is accepted.
func TestValidate_SingleDateAllowed(t *testing.T) {
	p := validProject()
	p.EndDate = date("2026-01-01")
	if err := p.Validate(); err != nil {
		t.Errorf("unexpected error for end date only: %v", err)
	}
}

// TestApplyAction covers the status workflow.
func TestApplyAction(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		from, action, want string
		err                error
	}{
		{StatusPlanning, ActionActivate, StatusActive, nil},
		{StatusOnHold, ActionActivate, StatusActive, nil},
		{StatusActive, ActionComplete, StatusCompleted, nil},
		{StatusActive, ActionPause, StatusOnHold, nil},
		{StatusPlanning, ActionCancel, StatusCancelled, nil},
		{StatusCompleted, ActionActivate, StatusCompleted, ErrInvalidTransition},
		{StatusPlanning, ActionComplete, StatusPlanning, ErrInvalidTransition},
		{StatusCancelled, ActionCancel, StatusCancelled, ErrInvalidTransition},
		{StatusActive, "archive", StatusActive, ErrInvalidAction},
	}
	for _, tt := range tests {
		t.Run(tt.from+"_"+tt.action, func(t *testing.T) {
			p := validProject()
			p.Status = tt.from
			err := p.ApplyAction(tt.action, now)
			if err != tt.err {
				t.Fatalf("got err %v, want %v", err, tt.err)
			}
			if p.Status != tt.want {
				t.Errorf("status = %s, want %s", p.Status, tt.want)
			}
			if err == nil && !p.UpdatedAt.Equal(now) {
				t.Error("expected UpdatedAt to be stamped")
			}
		})
	}
}

// TestAvailableActions verifies the offered actions match the transition table.
func TestAvailableActions(t *testing.T) {
	tests := map[string]string{
		StatusPlanning:  "activate,cancel",
		StatusActive:    "complete,pause,cancel",
		StatusOnHold:    "activate,cancel",
		StatusCompleted: "",
		StatusCancelled: "",
	}
	for status, want := range tests {
		got := strings.Join(AvailableActions(status), ",")
		if got != want {
			t.Errorf("AvailableActions(%s) = %q, want %q", status, got, want)
		}
		for _, a := range AvailableActions(status) {
			p := Project{Status: status}
			if err := p.ApplyAction(a, time.Now()); err != nil {
				t.Errorf("offered action %s from %s failed: %v", a, status, err)
			}
		}
	}
}

// TestIsJoinable verifies only planning and active projects accept members.
func TestIsJoinable(t *testing.T) {
	for _, s := range ValidStatuses {
		p := Project{Status: s}
		want := s == StatusPlanning || s == StatusActive
		if p.IsJoinable() != want {
			t.Errorf("IsJoinable(%s) = %v, want %v", s, !want, want)
		}
	}
}

// TestDaysRunning verifies the day count and the no-start-date default.
func TestDaysRunning(t *testing.T) {
	now := time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC)
	p := validProject()
	if got := p.DaysRunning(now); got != 0 {
		t.Errorf("no start date: got %d, want 0", got)
	}
	p.StartDate = date("2026-03-01")
	if got := p.DaysRunning(now); got != 10 {
		t.Errorf("got %d, want 10", got)
	}
	p.StartDate = date("2026-03-20")
	if got := p.DaysRunning(now); got != -9 {
		t.Errorf("future start: got %d, want -9", got)
	}
}

// TestParseDate verifies optional date parsing.
func TestParseDate(t *testing.T) {
	if d, err := ParseDate("  "); err != nil || !d.IsZero() {
		t.Errorf("blank: got %v, %v", d, err)
	}
	if _, err := ParseDate("03/01/2026"); err == nil {
		t.Error("expected error for wrong layout")
	}
	d, err := ParseDate("2026-03-01")
	if err != nil || FormatDate(d) != "2026-03-01" {
		t.Errorf("round trip failed: %v %v", d, err)
	}
	if FormatDate(time.Time{}) != "" {
		t.Error("zero date should format empty")
	}
}
