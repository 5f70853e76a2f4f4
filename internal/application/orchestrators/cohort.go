package orchestrators

import (
	"context"
	"log/slog"

	userStore "glp/internal/adapters/storage/user"
	"glp/internal/domain/user"
)

// UserListerForCohort lists users for cohort notifications.
type UserListerForCohort interface {
	List(ctx context.Context, filter userStore.ListFilter) ([]user.User, error)
}

// cohortIDs returns the IDs of active users holding any of roles, excluding excludeID.
func cohortIDs(ctx context.Context, users UserListerForCohort, roles []string, excludeID string) []string {
	if users == nil {
		return nil
	}
	active := true
	list, err := users.List(ctx, userStore.ListFilter{Roles: roles, Active: &active})
	if err != nil {
		slog.Error("cohort_lookup_failed", "roles", roles, "error", err)
		return nil
	}
	ids := make([]string, 0, len(list))
	for _, u := range list {
		if u.ID != excludeID {
			ids = append(ids, u.ID)
		}
	}
	return ids
}
