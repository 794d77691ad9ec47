package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/szhou/travelog/internal/apperror"
	"github.com/szhou/travelog/internal/model"
)

func createTestLocation(t *testing.T, l *LocationDB, userID, name string) *model.Location {
	t.Helper()
	loc := &model.Location{
		UserID:    userID,
		Name:      name,
		Latitude:  48.8584,
		Longitude: 2.2945,
		Address:   "Champ de Mars, Paris",
		Notes:     "go at sunset",
		PlaceID:   "ChIJLU7jZClu5kcR4PcOOO6p3I0",
	}
	if err := l.Create(context.Background(), loc); err != nil {
		t.Fatalf("creating test location: %v", err)
	}
	return loc
}

func TestLocationCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db.Users(), "loc@example.com")
	l := db.Locations()

	loc := createTestLocation(t, l, user.ID, "Eiffel Tower")
	if loc.UsageCount != 0 {
		t.Errorf("new location UsageCount = %d, want 0", loc.UsageCount)
	}

	found, err := l.GetByID(context.Background(), loc.ID, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Name != "Eiffel Tower" {
		t.Errorf("Name = %q", found.Name)
	}
	if found.Latitude != 48.8584 || found.Longitude != 2.2945 {
		t.Errorf("coordinates = %v,%v", found.Latitude, found.Longitude)
	}
	if found.Notes != "go at sunset" {
		t.Errorf("Notes = %q", found.Notes)
	}
}

func TestLocationGetByID_CrossUserLooksAbsent(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "owner@example.com")
	other := createTestUser(t, db.Users(), "other@example.com")
	l := db.Locations()

	loc := createTestLocation(t, l, owner.ID, "Private Spot")

	// Another user's row must be indistinguishable from a missing one.
	_, err := l.GetByID(context.Background(), loc.ID, other.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("cross-user GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestLocationListByUser_ProjectionAndOrder(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db.Users(), "list@example.com")
	l := db.Locations()

	a := createTestLocation(t, l, user.ID, "Rarely Used")
	b := createTestLocation(t, l, user.ID, "Often Used")
	for i := 0; i < 3; i++ {
		if err := l.IncrementUsage(context.Background(), b.ID, user.ID); err != nil {
			t.Fatalf("IncrementUsage() error = %v", err)
		}
	}

	list, err := l.ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
	if list[0].ID != b.ID {
		t.Errorf("list[0] = %q, want the most-used location %q", list[0].Name, "Often Used")
	}
	if list[0].UsageCount != 3 {
		t.Errorf("UsageCount = %d, want 3", list[0].UsageCount)
	}
	_ = a
}

func TestLocationUsageCounterScenario(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db.Users(), "usage@example.com")
	l := db.Locations()
	ctx := context.Background()

	loc := &model.Location{
		UserID:    user.ID,
		Name:      "Home",
		Latitude:  48.85,
		Longitude: 2.29,
	}
	if err := l.Create(ctx, loc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	list, err := l.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(list) != 1 || list[0].UsageCount != 0 {
		t.Fatalf("fresh location should list with usageCount 0, got %+v", list)
	}

	if err := l.IncrementUsage(ctx, loc.ID, user.ID); err != nil {
		t.Fatalf("IncrementUsage() error = %v", err)
	}
	got, _ := l.GetByID(ctx, loc.ID, user.ID)
	if got.UsageCount != 1 {
		t.Errorf("after increment UsageCount = %d, want 1", got.UsageCount)
	}
	if got.LastUsedAt == nil {
		t.Error("IncrementUsage() should stamp LastUsedAt")
	}

	// Two decrements against a count of one: floored at zero, never negative.
	if err := l.DecrementUsage(ctx, loc.ID, user.ID); err != nil {
		t.Fatalf("DecrementUsage() error = %v", err)
	}
	if err := l.DecrementUsage(ctx, loc.ID, user.ID); err != nil {
		t.Fatalf("DecrementUsage() (second) error = %v", err)
	}
	got, _ = l.GetByID(ctx, loc.ID, user.ID)
	if got.UsageCount != 0 {
		t.Errorf("after two decrements UsageCount = %d, want 0", got.UsageCount)
	}
}

func TestLocationDecrementUsage_MissingRowIsNoop(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db.Users(), "noop@example.com")

	// Decrementing a deleted location must not error.
	if err := db.Locations().DecrementUsage(context.Background(), "already-deleted", user.ID); err != nil {
		t.Errorf("DecrementUsage() on missing row = %v, want nil", err)
	}
}

func TestLocationSearch(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db.Users(), "search@example.com")
	l := db.Locations()

	createTestLocation(t, l, user.ID, "Kyoto Station")
	createTestLocation(t, l, user.ID, "Osaka Castle")

	results, err := l.Search(context.Background(), user.ID, "Kyoto")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].Name != "Kyoto Station" {
		t.Errorf("Search(Kyoto) = %+v, want only Kyoto Station", results)
	}

	// Address matches too.
	results, err = l.Search(context.Background(), user.ID, "Champ de Mars")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Search by shared address returned %d rows, want 2", len(results))
	}
}

func TestLocationPublicVisibility(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db.Users(), "alice@example.com")
	bob := createTestUser(t, db.Users(), "bob@example.com")
	l := db.Locations()
	ctx := context.Background()

	pub := &model.Location{UserID: alice.ID, Name: "Shared Viewpoint", Latitude: 1, Longitude: 2, IsPublic: true}
	priv := &model.Location{UserID: alice.ID, Name: "Secret Beach", Latitude: 3, Longitude: 4}
	own := &model.Location{UserID: bob.ID, Name: "Bob's Cafe", Latitude: 5, Longitude: 6}
	for _, loc := range []*model.Location{pub, priv, own} {
		if err := l.Create(ctx, loc); err != nil {
			t.Fatalf("Create(%s) error = %v", loc.Name, err)
		}
	}

	public, err := l.ListPublic(ctx)
	if err != nil {
		t.Fatalf("ListPublic() error = %v", err)
	}
	if len(public) != 1 || public[0].Name != "Shared Viewpoint" {
		t.Errorf("ListPublic() = %+v, want only the public location", public)
	}

	available, err := l.ListAvailable(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListAvailable() error = %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("ListAvailable(bob) returned %d rows, want own + public = 2", len(available))
	}
	names := map[string]bool{}
	for _, idx := range available {
		names[idx.Name] = true
	}
	if !names["Bob's Cafe"] || !names["Shared Viewpoint"] {
		t.Errorf("ListAvailable(bob) = %+v", names)
	}
}

func TestLocationUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db.Users(), "upd@example.com")
	l := db.Locations()
	ctx := context.Background()

	loc := createTestLocation(t, l, user.ID, "Old Name")
	loc.Name = "New Name"
	loc.IsPublic = true
	if err := l.Update(ctx, loc); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, _ := l.GetByID(ctx, loc.ID, user.ID)
	if found.Name != "New Name" || !found.IsPublic {
		t.Errorf("Update() not persisted: %+v", found)
	}

	if err := l.Delete(ctx, loc.ID, user.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := l.GetByID(ctx, loc.ID, user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete = %v, want ErrNotFound", err)
	}
	if err := l.Delete(ctx, loc.ID, user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() = %v, want ErrNotFound", err)
	}
}
