package projections

import (
	"context"
	"fmt"
	"time"

	trainingStore "glp/internal/adapters/storage/training"
	userStore "glp/internal/adapters/storage/user"
	"glp/internal/application/listutil"
	"glp/internal/domain/calendar"
	"glp/internal/domain/training"
	"glp/internal/domain/user"
)

// Date filter values accepted by the session list.
const (
	DateToday     = "today"
	DateUpcoming  = "upcoming"
	DatePast      = "past"
	DateThisWeek  = "this_week"
	DateThisMonth = "this_month"
)

// DateFilters lists date_filter values in display order.
var DateFilters = []string{DateToday, DateUpcoming, DatePast, DateThisWeek, DateThisMonth}

// DateRange returns the [from, to) bounds of a date filter in now's location,
// and whether the list should run newest first. Unknown filters are open on both ends.
func DateRange(filter string, now time.Time) (from, to time.Time, descending bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch filter {
	case DateToday:
		return day, day.AddDate(0, 0, 1), false
	case DateUpcoming:
		return now, time.Time{}, false
	case DatePast:
		return time.Time{}, now, true
	case DateThisWeek:
		monday := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
		return monday, monday.AddDate(0, 0, 7), false
	case DateThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(0, 1, 0), false
	}
	return time.Time{}, time.Time{}, true
}

// SessionListQuery carries query parameters for the session list.
// Filters: status, instructor_id, date_filter, mine ("1" restricts to sessions the viewer registered for).
type SessionListQuery struct {
	listutil.ListParams
	ViewerID string
	Now      time.Time
}

// SessionListResult carries one page of sessions plus filter options and stats.
type SessionListResult struct {
	Sessions     []trainingStore.Summary
	Page         listutil.PageInfo
	Filter       listutil.FilterParams
	StatusCounts map[string]int
	Instructors  []user.User
}

// SessionListDeps holds dependencies for SessionList.
type SessionListDeps struct {
	TrainingStore TrainingStore
	UserStore     UserStore
}

// QuerySessionList returns a filtered page of sessions.
// PRE: caller holds view_training
// POST: At most listutil.DefaultPerPage sessions; past and unfiltered lists run newest first
func QuerySessionList(ctx context.Context, q SessionListQuery, deps SessionListDeps) (SessionListResult, error) {
	filter := trainingStore.ListFilter{
		Search:       q.Search,
		InstructorID: q.Filters["instructor_id"],
	}
	if s := q.Filters["status"]; contains(training.ValidStatuses, s) {
		filter.Status = s
	}
	if q.Filters["mine"] == "1" {
		filter.AttendeeID = q.ViewerID
	}
	filter.From, filter.To, filter.Descending = DateRange(q.Filters["date_filter"], q.Now)

	total, err := deps.TrainingStore.Count(ctx, filter)
	if err != nil {
		return SessionListResult{}, err
	}
	page := listutil.NewPageInfo(q.Page, listutil.DefaultPerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()
	rows, err := deps.TrainingStore.List(ctx, filter)
	if err != nil {
		return SessionListResult{}, err
	}
	counts, err := deps.TrainingStore.CountByStatus(ctx)
	if err != nil {
		return SessionListResult{}, err
	}
	staff, err := ListStaff(ctx, deps.UserStore)
	if err != nil {
		return SessionListResult{}, err
	}

	return SessionListResult{
		Sessions:     rows,
		Page:         page,
		Filter:       q.FilterParams,
		StatusCounts: counts,
		Instructors:  staff,
	}, nil
}

// SessionDetailQuery carries input for the session detail page.
type SessionDetailQuery struct {
	SessionID string
	ViewerID  string
}

// SessionDetailResult carries the session page model.
type SessionDetailResult struct {
	Session          training.Session
	InstructorName   string
	Attendees        []trainingStore.Attendee
	Taken            int
	SeatsLeft        int // -1 when unlimited
	AttendanceCounts map[string]int
	MyStatus         string // viewer's attendance status, empty when none
	CanRegister      bool
	CanCancel        bool
	Candidates       []user.User // active participants and volunteers without a registration
}

// SessionDetailDeps holds dependencies for SessionDetail.
type SessionDetailDeps struct {
	TrainingStore TrainingStore
	UserStore     UserStore
}

// QuerySessionDetail loads a session with its attendance sheet.
// PRE: caller holds view_training
// POST: Returns sql.ErrNoRows (wrapped) when the session does not exist
func QuerySessionDetail(ctx context.Context, q SessionDetailQuery, deps SessionDetailDeps) (SessionDetailResult, error) {
	s, err := deps.TrainingStore.GetByID(ctx, q.SessionID)
	if err != nil {
		return SessionDetailResult{}, err
	}
	attendees, err := deps.TrainingStore.ListAttendance(ctx, s.ID)
	if err != nil {
		return SessionDetailResult{}, err
	}

	res := SessionDetailResult{
		Session:          s,
		Attendees:        attendees,
		AttendanceCounts: make(map[string]int, len(training.ValidAttendanceStatuses)),
		SeatsLeft:        -1,
	}
	if inst, err := deps.UserStore.GetByID(ctx, s.InstructorID); err == nil {
		res.InstructorName = inst.FullName()
	}
	registered := make(map[string]bool, len(attendees))
	for _, a := range attendees {
		registered[a.UserID] = true
		res.AttendanceCounts[a.Status]++
		if a.CountsTowardCapacity() {
			res.Taken++
		}
		if a.UserID == q.ViewerID {
			res.MyStatus = a.Status
		}
	}
	if s.MaxParticipants > 0 {
		res.SeatsLeft = s.MaxParticipants - res.Taken
		if res.SeatsLeft < 0 {
			res.SeatsLeft = 0
		}
	}
	open := s.Status == training.StatusScheduled
	mine := res.MyStatus == training.AttendanceRegistered || res.MyStatus == training.AttendanceAttended
	res.CanRegister = open && !mine && s.HasCapacity(res.Taken)
	res.CanCancel = open && res.MyStatus == training.AttendanceRegistered

	active := true
	people, err := deps.UserStore.List(ctx, userStore.ListFilter{
		Roles:  []string{user.RoleParticipant, user.RoleVolunteer},
		Active: &active,
	})
	if err != nil {
		return SessionDetailResult{}, err
	}
	for _, u := range people {
		if !registered[u.ID] {
			res.Candidates = append(res.Candidates, u)
		}
	}
	return res, nil
}

// CalendarQuery carries the requested month. Zero or out-of-range values fall back to Now's month.
type CalendarQuery struct {
	Year  int
	Month int
	Now   time.Time
}

// CalendarResult carries the month grid with sessions bucketed by day.
type CalendarResult struct {
	Grid      calendar.MonthGrid
	Title     string
	ByDay     map[string][]trainingStore.Summary // key: calendar.Key
	Today     string
	PrevYear  int
	PrevMonth int
	NextYear  int
	NextMonth int
}

// CalendarDeps holds dependencies for Calendar.
type CalendarDeps struct {
	TrainingStore TrainingStore
}

// QueryCalendar loads every session in the displayed grid with one query.
// PRE: caller holds view_training
// POST: Every session between the grid's first Monday and last Sunday appears under its day
func QueryCalendar(ctx context.Context, q CalendarQuery, deps CalendarDeps) (CalendarResult, error) {
	grid, err := calendar.NewMonthGrid(q.Year, time.Month(q.Month))
	if err != nil {
		grid, err = calendar.NewMonthGrid(q.Now.Year(), q.Now.Month())
		if err != nil {
			return CalendarResult{}, err
		}
	}

	loc := q.Now.Location()
	from := time.Date(grid.Start.Year(), grid.Start.Month(), grid.Start.Day(), 0, 0, 0, 0, loc)
	to := time.Date(grid.End.Year(), grid.End.Month(), grid.End.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	rows, err := deps.TrainingStore.List(ctx, trainingStore.ListFilter{From: from, To: to})
	if err != nil {
		return CalendarResult{}, err
	}

	byDay := make(map[string][]trainingStore.Summary)
	for _, r := range rows {
		key := calendar.Key(r.SessionDate.In(loc))
		byDay[key] = append(byDay[key], r)
	}

	py, pm := grid.Prev()
	ny, nm := grid.Next()
	return CalendarResult{
		Grid:      grid,
		Title:     fmt.Sprintf("%s %d", grid.Month, grid.Year),
		ByDay:     byDay,
		Today:     calendar.Key(q.Now),
		PrevYear:  py,
		PrevMonth: int(pm),
		NextYear:  ny,
		NextMonth: int(nm),
	}, nil
}
