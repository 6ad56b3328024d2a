package directory

import (
	"context"
	"log/slog"
)

const defaultSearchLimit = 10

// Service answers identity questions for the chat engine: who a user is,
// which department they belong to, and which contacts their role lets them
// see.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Service) GetDepartment(ctx context.Context, id string) (*Department, error) {
	return s.repo.GetDepartment(ctx, id)
}

// Search finds users by a case-insensitive fragment of their name or
// employee id, filtered to the targets the viewer's role is allowed to
// reach: admins see everyone, department heads see admins plus their own
// department's employees, employees see admins plus their own department
// head(s).
func (s *Service) Search(ctx context.Context, viewerID, query string, limit int) ([]*User, error) {
	if query == "" {
		return []*User{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	viewer, err := s.repo.GetUser(ctx, viewerID)
	if err != nil {
		s.logger.Error("search: failed to resolve viewer", "error", err, "viewer_id", viewerID)
		return nil, err
	}

	// Over-fetch so role filtering still fills the page.
	candidates, err := s.repo.SearchUsers(ctx, query, limit*4)
	if err != nil {
		s.logger.Error("search: query failed", "error", err, "viewer_id", viewerID)
		return nil, err
	}

	results := make([]*User, 0, limit)
	for _, candidate := range candidates {
		if candidate.ID == viewer.ID {
			continue
		}
		if !visibleTo(viewer, candidate) {
			continue
		}
		results = append(results, candidate)
		if len(results) >= limit {
			break
		}
	}

	return results, nil
}

func visibleTo(viewer, candidate *User) bool {
	switch viewer.Role {
	case RoleAdmin:
		return true
	case RoleDepartmentHead:
		if candidate.Role == RoleAdmin {
			return true
		}
		return candidate.Role == RoleEmployee && candidate.DepartmentID == viewer.DepartmentID
	case RoleEmployee:
		if candidate.Role == RoleAdmin {
			return true
		}
		return candidate.Role == RoleDepartmentHead && candidate.DepartmentID == viewer.DepartmentID
	}
	return false
}

// SuggestedContacts returns the people a user should see in their sidebar
// before any conversation exists: employees get their department head(s),
// department heads get every employee in their department.
func (s *Service) SuggestedContacts(ctx context.Context, viewer *User) ([]*User, error) {
	if viewer.DepartmentID == "" {
		return nil, nil
	}

	switch viewer.Role {
	case RoleEmployee:
		return s.repo.DepartmentHeads(ctx, viewer.DepartmentID)
	case RoleDepartmentHead:
		return s.repo.DepartmentEmployees(ctx, viewer.DepartmentID)
	}
	return nil, nil
}
