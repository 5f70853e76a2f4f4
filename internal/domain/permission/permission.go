package permission

import (
	mapset "github.com/deckarep/golang-set/v2"

	"glp/internal/domain/user"
)

// Permission names.
const (
	UserManagement       = "user_management"
	ProjectManagement    = "project_management"
	SurveyManagement     = "survey_management"
	TrainingManagement   = "training_management"
	AssignmentManagement = "assignment_management"
	ViewReports          = "view_reports"
	ViewProjects         = "view_projects"
	TakeSurveys          = "take_surveys"
	ViewTraining         = "view_training"
)

// All lists every known permission.
var All = []string{
	UserManagement, ProjectManagement, SurveyManagement, TrainingManagement,
	AssignmentManagement, ViewReports, ViewProjects, TakeSurveys, ViewTraining,
}

// Table is an immutable role → permission lookup built once at startup.
type Table struct {
	grants map[string]mapset.Set[string]
}

// NewTable builds a table from a role → permissions mapping.
// The input is copied; later changes to it do not affect the table.
func NewTable(grants map[string][]string) *Table {
	t := &Table{grants: make(map[string]mapset.Set[string], len(grants))}
	for role, perms := range grants {
		t.grants[role] = mapset.NewThreadUnsafeSet(perms...)
	}
	return t
}

// DefaultTable returns the standard program role mapping.
// INVARIANT: admin holds every permission; participant never holds user_management
func DefaultTable() *Table {
	return NewTable(map[string][]string{
		user.RoleAdmin: All,
		user.RoleMentor: {
			ProjectManagement, SurveyManagement, TrainingManagement, AssignmentManagement,
			ViewReports, ViewProjects, TakeSurveys, ViewTraining,
		},
		user.RoleVolunteer: {
			TrainingManagement, ViewReports, ViewProjects, TakeSurveys, ViewTraining,
		},
		user.RoleParticipant: {
			ViewProjects, TakeSurveys, ViewTraining,
		},
	})
}

// Has reports whether role grants perm. Unknown roles grant nothing.
func (t *Table) Has(role, perm string) bool {
	set, ok := t.grants[role]
	if !ok {
		return false
	}
	return set.Contains(perm)
}

// For returns the sorted permissions granted to role.
func (t *Table) For(role string) []string {
	set, ok := t.grants[role]
	if !ok {
		return nil
	}
	out := make([]string, 0, set.Cardinality())
	for _, p := range All {
		if set.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}
