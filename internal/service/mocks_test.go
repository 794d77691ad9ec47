package service

// Hand-written in-memory mocks for the repository interfaces. The service
// tests only exercise business rules; storage behavior is covered by the
// sqlite package's own tests.

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/szhou/travelog/internal/apperror"
	"github.com/szhou/travelog/internal/model"
	"github.com/szhou/travelog/internal/repository"
)

// --- users ---

type mockUserRepo struct {
	users  map[string]*model.User // by ID
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("email already registered")
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string, requireChange bool) error {
	u, ok := m.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	u.PasswordHash = passwordHash
	u.RequirePasswordChange = requireChange
	u.UpdatedAt = time.Now()
	return nil
}

// --- locations ---

type mockLocationRepo struct {
	locations map[string]*model.Location
	nextID    int

	incrementErr error // injected failure for counter paths
}

func newMockLocationRepo() *mockLocationRepo {
	return &mockLocationRepo{locations: make(map[string]*model.Location)}
}

func (m *mockLocationRepo) Create(_ context.Context, loc *model.Location) error {
	m.nextID++
	loc.ID = fmt.Sprintf("loc-%d", m.nextID)
	loc.CreatedAt = time.Now()
	loc.UpdatedAt = loc.CreatedAt
	stored := *loc
	m.locations[loc.ID] = &stored
	return nil
}

func (m *mockLocationRepo) GetByID(_ context.Context, id, userID string) (*model.Location, error) {
	loc, ok := m.locations[id]
	if !ok || loc.UserID != userID {
		return nil, apperror.NotFound("location", id)
	}
	result := *loc
	return &result, nil
}

func (m *mockLocationRepo) Update(_ context.Context, loc *model.Location) error {
	stored, ok := m.locations[loc.ID]
	if !ok || stored.UserID != loc.UserID {
		return apperror.NotFound("location", loc.ID)
	}
	copied := *loc
	copied.UsageCount = stored.UsageCount
	copied.LastUsedAt = stored.LastUsedAt
	m.locations[loc.ID] = &copied
	return nil
}

func (m *mockLocationRepo) Delete(_ context.Context, id, userID string) error {
	loc, ok := m.locations[id]
	if !ok || loc.UserID != userID {
		return apperror.NotFound("location", id)
	}
	delete(m.locations, id)
	return nil
}

func (m *mockLocationRepo) list(filter func(*model.Location) bool) []model.LocationIndex {
	var result []model.LocationIndex
	for _, loc := range m.locations {
		if !filter(loc) {
			continue
		}
		result = append(result, model.LocationIndex{
			ID:         loc.ID,
			UserID:     loc.UserID,
			Name:       loc.Name,
			Latitude:   loc.Latitude,
			Longitude:  loc.Longitude,
			Address:    loc.Address,
			Category:   loc.Category,
			UsageCount: loc.UsageCount,
			LastUsedAt: loc.LastUsedAt,
			IsPublic:   loc.IsPublic,
			CreatedAt:  loc.CreatedAt,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UsageCount > result[j].UsageCount
	})
	return result
}

func (m *mockLocationRepo) ListByUser(_ context.Context, userID string) ([]model.LocationIndex, error) {
	return m.list(func(l *model.Location) bool { return l.UserID == userID }), nil
}

func (m *mockLocationRepo) Search(_ context.Context, userID, query string) ([]model.LocationIndex, error) {
	q := strings.ToLower(query)
	return m.list(func(l *model.Location) bool {
		return l.UserID == userID && strings.Contains(strings.ToLower(l.Name), q)
	}), nil
}

func (m *mockLocationRepo) ListPublic(_ context.Context) ([]model.LocationIndex, error) {
	return m.list(func(l *model.Location) bool { return l.IsPublic }), nil
}

func (m *mockLocationRepo) ListAvailable(_ context.Context, userID string) ([]model.LocationIndex, error) {
	return m.list(func(l *model.Location) bool { return l.UserID == userID || l.IsPublic }), nil
}

func (m *mockLocationRepo) IncrementUsage(_ context.Context, id, userID string) error {
	if m.incrementErr != nil {
		return m.incrementErr
	}
	loc, ok := m.locations[id]
	if !ok || loc.UserID != userID {
		return apperror.NotFound("location", id)
	}
	loc.UsageCount++
	now := time.Now()
	loc.LastUsedAt = &now
	return nil
}

func (m *mockLocationRepo) DecrementUsage(_ context.Context, id, userID string) error {
	loc, ok := m.locations[id]
	if !ok || loc.UserID != userID {
		return nil // advisory bookkeeping, missing row is a no-op
	}
	if loc.UsageCount > 0 {
		loc.UsageCount--
	}
	return nil
}

// --- photos ---

type mockPhotoRepo struct {
	photos map[string]*model.Photo

	createErr error // injected failure for the upload saga test
}

func newMockPhotoRepo() *mockPhotoRepo {
	return &mockPhotoRepo{photos: make(map[string]*model.Photo)}
}

func (m *mockPhotoRepo) Create(_ context.Context, photo *model.Photo) error {
	if m.createErr != nil {
		return m.createErr
	}
	photo.Recategorize()
	photo.CreatedAt = time.Now()
	photo.UpdatedAt = photo.CreatedAt
	stored := *photo
	m.photos[photo.ID] = &stored
	return nil
}

func (m *mockPhotoRepo) GetByID(_ context.Context, id, userID string) (*model.Photo, error) {
	p, ok := m.photos[id]
	if !ok || p.UserID != userID {
		return nil, apperror.NotFound("photo", id)
	}
	result := *p
	return &result, nil
}

func (m *mockPhotoRepo) Update(_ context.Context, photo *model.Photo) error {
	stored, ok := m.photos[photo.ID]
	if !ok || stored.UserID != photo.UserID {
		return apperror.NotFound("photo", photo.ID)
	}
	photo.Recategorize()
	copied := *photo
	m.photos[photo.ID] = &copied
	return nil
}

func (m *mockPhotoRepo) Delete(_ context.Context, id, userID string) error {
	p, ok := m.photos[id]
	if !ok || p.UserID != userID {
		return apperror.NotFound("photo", id)
	}
	delete(m.photos, id)
	return nil
}

func (m *mockPhotoRepo) List(_ context.Context, userID string, opts repository.PhotoListOptions) ([]model.Photo, error) {
	var result []model.Photo
	for _, p := range m.photos {
		if p.UserID != userID || p.Trashed != opts.TrashedOnly {
			continue
		}
		if opts.Category != "" && p.Category != opts.Category {
			continue
		}
		if opts.LocationID != "" && (p.LocationID == nil || *p.LocationID != opts.LocationID) {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

func (m *mockPhotoRepo) ListPublic(_ context.Context) ([]model.Photo, error) {
	var result []model.Photo
	for _, p := range m.photos {
		if p.IsPublic && !p.Trashed {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPhotoRepo) SetTrashed(_ context.Context, id, userID string, trashed bool) error {
	p, ok := m.photos[id]
	if !ok || p.UserID != userID {
		return apperror.NotFound("photo", id)
	}
	p.Trashed = trashed
	if trashed {
		now := time.Now()
		p.TrashedAt = &now
	} else {
		p.TrashedAt = nil
	}
	return nil
}

func (m *mockPhotoRepo) Stats(_ context.Context, userID string) (*model.PhotoStats, error) {
	stats := &model.PhotoStats{ByCategory: make(map[model.PhotoCategory]int)}
	for _, p := range m.photos {
		if p.UserID != userID {
			continue
		}
		stats.Total++
		stats.TotalBytes += p.SizeBytes
		stats.ByCategory[p.Category]++
		if p.Trashed {
			stats.Trashed++
		}
		if p.IsPublic {
			stats.Public++
		}
	}
	return stats, nil
}

// --- canvas ---

type mockCanvasRepo struct {
	projects map[string]*model.CanvasProject
	nextID   int
}

func newMockCanvasRepo() *mockCanvasRepo {
	return &mockCanvasRepo{projects: make(map[string]*model.CanvasProject)}
}

func (m *mockCanvasRepo) Create(_ context.Context, project *model.CanvasProject) error {
	m.nextID++
	project.ID = fmt.Sprintf("canvas-%d", m.nextID)
	project.Version = 1
	project.Pages = []model.CanvasPage{{ID: "page-1", Elements: []model.CanvasElement{}}}
	project.CreatedAt = time.Now()
	project.UpdatedAt = project.CreatedAt
	stored := *project
	m.projects[project.ID] = &stored
	return nil
}

func (m *mockCanvasRepo) GetByID(_ context.Context, id, userID string) (*model.CanvasProject, error) {
	p, ok := m.projects[id]
	if !ok || p.UserID != userID {
		return nil, apperror.NotFound("canvas project", id)
	}
	result := *p
	return &result, nil
}

func (m *mockCanvasRepo) ListByUser(_ context.Context, userID string) ([]model.CanvasIndex, error) {
	var result []model.CanvasIndex
	for _, p := range m.projects {
		if p.UserID != userID {
			continue
		}
		result = append(result, model.CanvasIndex{
			ID: p.ID, UserID: p.UserID, Title: p.Title,
			PageCount: len(p.Pages), Version: p.Version,
		})
	}
	return result, nil
}

func (m *mockCanvasRepo) Save(_ context.Context, id, userID string, save *model.CanvasSave) (*model.CanvasProject, error) {
	p, ok := m.projects[id]
	if !ok || p.UserID != userID {
		return nil, apperror.NotFound("canvas project", id)
	}
	if p.Version != save.ExpectedVersion {
		return nil, &apperror.VersionConflict{ServerVersion: p.Version, ClientVersion: save.ExpectedVersion}
	}
	if save.Title != nil {
		p.Title = *save.Title
	}
	if save.CurrentPage != nil {
		p.CurrentPage = *save.CurrentPage
	}
	if save.Pages != nil {
		p.Pages = save.Pages
	}
	if save.ThumbnailURL != nil {
		p.ThumbnailURL = *save.ThumbnailURL
	}
	p.Version++
	p.UpdatedAt = time.Now()
	result := *p
	return &result, nil
}

func (m *mockCanvasRepo) Delete(_ context.Context, id, userID string) error {
	p, ok := m.projects[id]
	if !ok || p.UserID != userID {
		return apperror.NotFound("canvas project", id)
	}
	delete(m.projects, id)
	return nil
}

// --- blob store ---

type mockBlobStore struct {
	objects map[string][]byte

	putErr    error
	deleted   []string
	putCalled int
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{objects: make(map[string][]byte)}
}

func (m *mockBlobStore) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	m.putCalled++
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *mockBlobStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (m *mockBlobStore) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.objects, key)
	return nil
}

func (m *mockBlobStore) URL(key string) string {
	return "/uploads/" + key
}
