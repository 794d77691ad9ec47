package service

import (
	"context"
	"errors"
	"testing"

	"github.com/szhou/travelog/internal/apperror"
	"github.com/szhou/travelog/internal/model"
)

func newTestCanvasService(t *testing.T) (*CanvasService, *mockCanvasRepo) {
	t.Helper()
	repo := newMockCanvasRepo()
	return NewCanvasService(repo, testLogger()), repo
}

func TestCanvasCreate_DefaultTitle(t *testing.T) {
	svc, _ := newTestCanvasService(t)

	project, err := svc.Create(context.Background(), "user-1", "   ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if project.Title != "Untitled" {
		t.Errorf("Title = %q, want Untitled", project.Title)
	}
	if project.Version != 1 {
		t.Errorf("Version = %d, want 1", project.Version)
	}
}

func TestCanvasSave_Validation(t *testing.T) {
	svc, _ := newTestCanvasService(t)
	ctx := context.Background()

	project, _ := svc.Create(ctx, "user-1", "Trip")

	empty := ""
	negative := -1
	cases := []struct {
		name string
		save *model.CanvasSave
	}{
		{"zero expected version", &model.CanvasSave{ExpectedVersion: 0}},
		{"empty title", &model.CanvasSave{Title: &empty, ExpectedVersion: 1}},
		{"negative current page", &model.CanvasSave{CurrentPage: &negative, ExpectedVersion: 1}},
		{"unknown element kind", &model.CanvasSave{
			Pages: []model.CanvasPage{{ID: "p", Elements: []model.CanvasElement{
				{ID: "e", Kind: "video"},
			}}},
			ExpectedVersion: 1,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Save(ctx, project.ID, "user-1", tc.save); !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCanvasSave_PassesThroughConflict(t *testing.T) {
	svc, _ := newTestCanvasService(t)
	ctx := context.Background()

	project, _ := svc.Create(ctx, "user-1", "Trip")

	title := "First"
	if _, err := svc.Save(ctx, project.ID, "user-1", &model.CanvasSave{Title: &title, ExpectedVersion: 1}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	stale := "Second"
	_, err := svc.Save(ctx, project.ID, "user-1", &model.CanvasSave{Title: &stale, ExpectedVersion: 1})
	if !errors.Is(err, apperror.ErrVersionConflict) {
		t.Fatalf("error = %v, want ErrVersionConflict", err)
	}
	var vc *apperror.VersionConflict
	if !errors.As(err, &vc) || vc.ServerVersion != 2 || vc.ClientVersion != 1 {
		t.Errorf("conflict = %+v, want server 2 / client 1", vc)
	}
}

func TestCanvasDelete(t *testing.T) {
	svc, repo := newTestCanvasService(t)
	ctx := context.Background()

	project, _ := svc.Create(ctx, "user-1", "Trip")

	if err := svc.Delete(ctx, project.ID, "user-2"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("cross-user Delete() = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, project.ID, "user-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(repo.projects) != 0 {
		t.Error("project should be gone")
	}
}
