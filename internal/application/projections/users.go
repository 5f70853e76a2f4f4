package projections

import (
	"context"

	userStore "glp/internal/adapters/storage/user"
	"glp/internal/application/listutil"
	"glp/internal/domain/user"
)

// UserListQuery carries query parameters for the user list.
// Filters: role (a user role), active ("1" or "0").
type UserListQuery struct {
	listutil.ListParams
}

// UserListResult carries one page of users plus the stats panel.
type UserListResult struct {
	Users      []user.User
	Page       listutil.PageInfo
	Filter     listutil.FilterParams
	RoleCounts map[string]int // active users by role
	Total      int            // all users, any state
}

// UserListDeps holds dependencies for UserList.
type UserListDeps struct {
	UserStore UserStore
}

// QueryUserList returns a filtered page of users.
// PRE: caller holds user_management
// POST: At most listutil.DefaultPerPage users; Page reflects the filtered total
func QueryUserList(ctx context.Context, q UserListQuery, deps UserListDeps) (UserListResult, error) {
	filter := userStore.ListFilter{Search: q.Search}
	if role := q.Filters["role"]; user.IsValidRole(role) {
		filter.Role = role
	}
	switch q.Filters["active"] {
	case "1":
		active := true
		filter.Active = &active
	case "0":
		active := false
		filter.Active = &active
	}

	total, err := deps.UserStore.Count(ctx, filter)
	if err != nil {
		return UserListResult{}, err
	}
	page := listutil.NewPageInfo(q.Page, listutil.DefaultPerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()
	users, err := deps.UserStore.List(ctx, filter)
	if err != nil {
		return UserListResult{}, err
	}

	byRole, err := deps.UserStore.CountByRole(ctx)
	if err != nil {
		return UserListResult{}, err
	}
	all, err := deps.UserStore.Count(ctx, userStore.ListFilter{})
	if err != nil {
		return UserListResult{}, err
	}

	return UserListResult{
		Users:      users,
		Page:       page,
		Filter:     q.FilterParams,
		RoleCounts: byRole,
		Total:      all,
	}, nil
}

// ListStaff returns active users who can lead a session, for instructor pickers and filters.
// PRE: none
// POST: Returns active admins, mentors and volunteers ordered by name
func ListStaff(ctx context.Context, users UserStore) ([]user.User, error) {
	active := true
	return users.List(ctx, userStore.ListFilter{
		Roles:  []string{user.RoleAdmin, user.RoleMentor, user.RoleVolunteer},
		Active: &active,
	})
}
