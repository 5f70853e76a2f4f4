package projections

import (
	"context"
	"time"

	assignmentStore "glp/internal/adapters/storage/assignment"
	projectStore "glp/internal/adapters/storage/project"
	"glp/internal/application/listutil"
	"glp/internal/domain/project"
)

// ProjectListQuery carries query parameters for the project list.
// Filters: status, priority, my_projects ("1" restricts to the viewer's projects).
type ProjectListQuery struct {
	listutil.ListParams
	ViewerID string
}

// ProjectListResult carries one page of projects plus the stats panel.
type ProjectListResult struct {
	Projects     []projectStore.Summary
	Page         listutil.PageInfo
	Filter       listutil.FilterParams
	StatusCounts map[string]int
	Total        int
}

// ProjectListDeps holds dependencies for ProjectList.
type ProjectListDeps struct {
	ProjectStore ProjectStore
}

// QueryProjectList returns a filtered page of projects.
// PRE: caller holds view_projects
// POST: At most listutil.DefaultPerPage projects, newest first
func QueryProjectList(ctx context.Context, q ProjectListQuery, deps ProjectListDeps) (ProjectListResult, error) {
	filter := projectStore.ListFilter{Search: q.Search}
	if s := q.Filters["status"]; contains(project.ValidStatuses, s) {
		filter.Status = s
	}
	if p := q.Filters["priority"]; contains(project.ValidPriorities, p) {
		filter.Priority = p
	}
	if q.Filters["my_projects"] == "1" {
		filter.MemberID = q.ViewerID
	}

	total, err := deps.ProjectStore.Count(ctx, filter)
	if err != nil {
		return ProjectListResult{}, err
	}
	page := listutil.NewPageInfo(q.Page, listutil.DefaultPerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()
	rows, err := deps.ProjectStore.List(ctx, filter)
	if err != nil {
		return ProjectListResult{}, err
	}

	counts, err := deps.ProjectStore.CountByStatus(ctx)
	if err != nil {
		return ProjectListResult{}, err
	}
	all := 0
	for _, n := range counts {
		all += n
	}

	return ProjectListResult{
		Projects:     rows,
		Page:         page,
		Filter:       q.FilterParams,
		StatusCounts: counts,
		Total:        all,
	}, nil
}

// ProjectDetailQuery carries input for the project detail page.
type ProjectDetailQuery struct {
	ProjectID string
	ViewerID  string
	Now       time.Time
}

// ProjectDetailResult carries the project page model.
type ProjectDetailResult struct {
	Project      project.Project
	CreatorName  string
	Participants []projectStore.Member
	Assignments  []assignmentStore.Row
	DaysRunning  int
	ViewerRole   string // role_in_project, empty when not a participant
	CanJoin      bool
	CanLeave     bool
}

// ProjectDetailDeps holds dependencies for ProjectDetail.
type ProjectDetailDeps struct {
	ProjectStore    ProjectStore
	UserStore       UserStore
	AssignmentStore AssignmentStore
}

// QueryProjectDetail loads a project with participants and assignments.
// PRE: caller holds view_projects
// POST: Returns sql.ErrNoRows (wrapped) when the project does not exist
func QueryProjectDetail(ctx context.Context, q ProjectDetailQuery, deps ProjectDetailDeps) (ProjectDetailResult, error) {
	p, err := deps.ProjectStore.GetByID(ctx, q.ProjectID)
	if err != nil {
		return ProjectDetailResult{}, err
	}
	members, err := deps.ProjectStore.ListParticipants(ctx, p.ID)
	if err != nil {
		return ProjectDetailResult{}, err
	}
	tasks, err := deps.AssignmentStore.List(ctx, assignmentStore.ListFilter{ProjectID: p.ID})
	if err != nil {
		return ProjectDetailResult{}, err
	}

	res := ProjectDetailResult{
		Project:      p,
		Participants: members,
		Assignments:  tasks,
		DaysRunning:  p.DaysRunning(q.Now),
	}
	for _, m := range members {
		if m.UserID == p.CreatedBy {
			res.CreatorName = m.FullName()
		}
		if m.UserID == q.ViewerID {
			res.ViewerRole = m.RoleInProject
		}
	}
	if res.CreatorName == "" {
		if u, err := deps.UserStore.GetByID(ctx, p.CreatedBy); err == nil {
			res.CreatorName = u.FullName()
		}
	}
	res.CanJoin = res.ViewerRole == "" && p.IsJoinable()
	res.CanLeave = res.ViewerRole != "" && p.CreatedBy != q.ViewerID
	return res, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
