package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/szhou/travelog/internal/apperror"
	"github.com/szhou/travelog/internal/model"
	"github.com/szhou/travelog/internal/repository"
)

// CanvasService manages journal projects. Concurrency control lives in the
// repository's Save; this layer adds input validation.
type CanvasService struct {
	repo   repository.CanvasRepository
	logger *slog.Logger
}

func NewCanvasService(repo repository.CanvasRepository, logger *slog.Logger) *CanvasService {
	return &CanvasService{repo: repo, logger: logger}
}

// Create starts a new project. An empty title defaults to "Untitled".
func (s *CanvasService) Create(ctx context.Context, userID, title string) (*model.CanvasProject, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled"
	}

	project := &model.CanvasProject{UserID: userID, Title: title}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("canvas project created", "project_id", project.ID, "user_id", userID)
	return project, nil
}

func (s *CanvasService) Get(ctx context.Context, id, userID string) (*model.CanvasProject, error) {
	return s.repo.GetByID(ctx, id, userID)
}

func (s *CanvasService) List(ctx context.Context, userID string) ([]model.CanvasIndex, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Save applies a partial update under the optimistic version check. A
// stale ExpectedVersion surfaces as *apperror.VersionConflict carrying
// both version numbers.
func (s *CanvasService) Save(ctx context.Context, id, userID string, save *model.CanvasSave) (*model.CanvasProject, error) {
	if save.ExpectedVersion < 1 {
		return nil, apperror.ValidationFailed("expectedVersion", "expectedVersion must be at least 1")
	}
	if save.Title != nil && strings.TrimSpace(*save.Title) == "" {
		return nil, apperror.ValidationFailed("title", "title cannot be empty")
	}
	if save.CurrentPage != nil && *save.CurrentPage < 0 {
		return nil, apperror.ValidationFailed("currentPage", "currentPage cannot be negative")
	}
	for _, page := range save.Pages {
		for _, el := range page.Elements {
			if el.Kind != "text" && el.Kind != "image" {
				return nil, apperror.ValidationFailed("pages", "unknown element kind: "+el.Kind)
			}
		}
	}

	return s.repo.Save(ctx, id, userID, save)
}

func (s *CanvasService) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.logger.Info("canvas project deleted", "project_id", id, "user_id", userID)
	return nil
}
