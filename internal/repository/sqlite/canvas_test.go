package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/szhou/travelog/internal/apperror"
	"github.com/szhou/travelog/internal/model"
)

func createTestProject(t *testing.T, c *CanvasDB, userID, title string) *model.CanvasProject {
	t.Helper()
	project := &model.CanvasProject{UserID: userID, Title: title}
	if err := c.Create(context.Background(), project); err != nil {
		t.Fatalf("creating test project: %v", err)
	}
	return project
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestCanvasCreate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db.Users(), "canvas@example.com")
	c := db.Canvas()

	project := createTestProject(t, c, user.ID, "Kyoto Trip")

	if project.Version != 1 {
		t.Errorf("new project Version = %d, want 1", project.Version)
	}
	if len(project.Pages) != 1 {
		t.Errorf("new project should start with one empty page, got %d", len(project.Pages))
	}

	found, err := c.GetByID(context.Background(), project.ID, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Title != "Kyoto Trip" || found.Version != 1 {
		t.Errorf("GetByID() = %+v", found)
	}
}

func TestCanvasSave_IncrementsVersionByExactlyOne(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db.Users(), "vinc@example.com")
	c := db.Canvas()
	ctx := context.Background()

	project := createTestProject(t, c, user.ID, "Journal")

	for expected := 1; expected <= 4; expected++ {
		saved, err := c.Save(ctx, project.ID, user.ID, &model.CanvasSave{
			Title:           strPtr(fmt.Sprintf("Journal v%d", expected)),
			ExpectedVersion: expected,
		})
		if err != nil {
			t.Fatalf("Save() at version %d: %v", expected, err)
		}
		if saved.Version != expected+1 {
			t.Fatalf("Version after save = %d, want %d", saved.Version, expected+1)
		}
	}
}

func TestCanvasSave_StaleVersionConflicts(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db.Users(), "stale@example.com")
	c := db.Canvas()
	ctx := context.Background()

	project := createTestProject(t, c, user.ID, "Original Title")

	// Two clients hold version 1. The first save wins.
	first, err := c.Save(ctx, project.ID, user.ID, &model.CanvasSave{
		Title:           strPtr("First Writer"),
		ExpectedVersion: 1,
	})
	if err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("first save Version = %d, want 2", first.Version)
	}

	// The second save carries the now-stale version 1.
	_, err = c.Save(ctx, project.ID, user.ID, &model.CanvasSave{
		Title:           strPtr("Second Writer"),
		ExpectedVersion: 1,
	})
	if err == nil {
		t.Fatal("second Save() with stale version should fail")
	}
	if !errors.Is(err, apperror.ErrVersionConflict) {
		t.Fatalf("error = %v, want ErrVersionConflict", err)
	}

	var vc *apperror.VersionConflict
	if !errors.As(err, &vc) {
		t.Fatal("errors.As should extract *VersionConflict")
	}
	if vc.ServerVersion != 2 {
		t.Errorf("ServerVersion = %d, want 2", vc.ServerVersion)
	}
	if vc.ClientVersion != 1 {
		t.Errorf("ClientVersion = %d, want 1", vc.ClientVersion)
	}

	// The stored project must be untouched by the losing save.
	current, err := c.GetByID(ctx, project.ID, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if current.Title != "First Writer" {
		t.Errorf("Title = %q, the losing save must not modify the row", current.Title)
	}
	if current.Version != 2 {
		t.Errorf("Version = %d, want 2", current.Version)
	}
}

func TestCanvasSave_PartialMerge(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db.Users(), "merge@example.com")
	c := db.Canvas()
	ctx := context.Background()

	project := createTestProject(t, c, user.ID, "Keep Me")

	pages := []model.CanvasPage{
		{ID: "p1", Background: "#ffffff", Elements: []model.CanvasElement{
			{ID: "e1", Kind: "text", X: 10, Y: 20, Content: "Day one", FontSize: 14},
			{ID: "e2", Kind: "image", X: 50, Y: 60, Width: 200, Height: 150, PhotoURL: "/uploads/u/a.jpg"},
		}},
		{ID: "p2", Elements: []model.CanvasElement{}},
	}

	// Save only pages: title and thumbnail stay.
	saved, err := c.Save(ctx, project.ID, user.ID, &model.CanvasSave{
		Pages:           pages,
		CurrentPage:     intPtr(1),
		ExpectedVersion: 1,
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.Title != "Keep Me" {
		t.Errorf("Title = %q, partial save must not clear it", saved.Title)
	}

	found, _ := c.GetByID(ctx, project.ID, user.ID)
	if len(found.Pages) != 2 {
		t.Fatalf("Pages = %d, want 2", len(found.Pages))
	}
	if found.CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want 1", found.CurrentPage)
	}
	els := found.Pages[0].Elements
	if len(els) != 2 || els[0].Kind != "text" || els[1].Kind != "image" {
		t.Errorf("elements did not round-trip: %+v", els)
	}
	if els[0].Content != "Day one" || els[1].PhotoURL != "/uploads/u/a.jpg" {
		t.Errorf("element payloads did not round-trip: %+v", els)
	}
}

func TestCanvasSave_NotFound(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db.Users(), "cmiss@example.com")

	_, err := db.Canvas().Save(context.Background(), "missing", user.ID, &model.CanvasSave{ExpectedVersion: 1})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Save() on missing project = %v, want ErrNotFound", err)
	}
}

func TestCanvasListByUser_OmitsPages(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db.Users(), "clist@example.com")
	c := db.Canvas()

	createTestProject(t, c, user.ID, "A")
	createTestProject(t, c, user.ID, "B")

	list, err := c.ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
	for _, idx := range list {
		if idx.PageCount != 1 {
			t.Errorf("PageCount = %d, want 1", idx.PageCount)
		}
		if idx.Version != 1 {
			t.Errorf("Version = %d, want 1", idx.Version)
		}
	}
}

func TestCanvasDelete_CrossUserLooksAbsent(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "cowner@example.com")
	other := createTestUser(t, db.Users(), "cother@example.com")
	c := db.Canvas()

	project := createTestProject(t, c, owner.ID, "Mine")

	if err := c.Delete(context.Background(), project.ID, other.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("cross-user Delete() = %v, want ErrNotFound", err)
	}
	if err := c.Delete(context.Background(), project.ID, owner.ID); err != nil {
		t.Errorf("owner Delete() = %v", err)
	}
}
