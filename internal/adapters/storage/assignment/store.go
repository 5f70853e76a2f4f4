package assignment

import (
	"context"

	domain "glp/internal/domain/assignment"
)

// Store reads and seeds assignments. The web screens only display them.
type Store interface {
	Save(ctx context.Context, a domain.Assignment) error
	List(ctx context.Context, filter ListFilter) ([]Row, error)
}

// ListFilter selects assignments by project and/or assignee.
type ListFilter struct {
	ProjectID  string
	AssignedTo string
	Limit      int
}

// Row is an assignment joined with display names.
type Row struct {
	domain.Assignment
	AssigneeName string
	ProjectTitle string
}
