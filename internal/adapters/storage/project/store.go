package project

import (
	"context"

	domain "glp/internal/domain/project"
)

// Store persists Project and ProjectParticipant state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Project, error)
	Create(ctx context.Context, p domain.Project, leader domain.Participant) error
	Save(ctx context.Context, p domain.Project) error
	List(ctx context.Context, filter ListFilter) ([]Summary, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)

	GetParticipant(ctx context.Context, projectID, userID string) (domain.Participant, error)
	AddParticipant(ctx context.Context, p domain.Participant) error
	RemoveParticipant(ctx context.Context, projectID, userID string) error
	ListParticipants(ctx context.Context, projectID string) ([]Member, error)
}

// ListFilter carries filtering parameters for List and Count.
// MemberID restricts to projects the user participates in.
type ListFilter struct {
	Limit    int
	Offset   int
	Search   string
	Status   string
	Priority string
	MemberID string
}

// Summary is a project row for list views.
type Summary struct {
	domain.Project
	CreatorName      string
	ParticipantCount int
}

// Member is a participant row joined with the user's display fields.
type Member struct {
	domain.Participant
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// FullName returns "First Last".
func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}
