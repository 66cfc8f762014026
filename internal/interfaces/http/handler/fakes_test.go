package handler

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/gin-gonic/gin"

	"z-script-ai-api/internal/domain/entity"
	"z-script-ai-api/internal/domain/repository"
	"z-script-ai-api/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memStore struct {
	mu       sync.Mutex
	users    map[string]*entity.User
	projects map[string]*entity.Project
	elements []*entity.Element
	turns    []*entity.ConversationTurn
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*entity.User{},
		projects: map[string]*entity.Project{},
	}
}

type memUsers struct{ *memStore }

func (m memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == entity.NormalizeEmail(email) {
			return u, nil
		}
	}
	return nil, nil
}

func (m memUsers) FindOrCreate(ctx context.Context, email, name string) (*entity.User, error) {
	if u, _ := m.GetByEmail(ctx, email); u != nil {
		return u, nil
	}
	u := entity.NewUser(email, name)
	u.ID = "user-" + u.Email
	return u, m.Create(ctx, u)
}

type memProjects struct{ *memStore }

func (m memProjects) Create(_ context.Context, p *entity.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = "project-" + p.Title
	}
	m.projects[p.ID] = p
	return nil
}

func (m memProjects) GetByID(_ context.Context, id string) (*entity.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projects[id], nil
}

func (m memProjects) ListByUser(_ context.Context, userID string, p repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*entity.Project
	for _, pr := range m.projects {
		if pr.UserID == userID {
			items = append(items, pr)
		}
	}
	slices.SortFunc(items, func(a, b *entity.Project) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (m memProjects) Touch(context.Context, string) error { return nil }

type memElements struct{ *memStore }

func (m memElements) Append(_ context.Context, el *entity.Element) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := 0
	for _, e := range m.elements {
		if e.ProjectID == el.ProjectID {
			next++
		}
	}
	el.Order = next
	m.elements = append(m.elements, el)
	return nil
}

func (m memElements) GetByID(_ context.Context, id string) (*entity.Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.elements {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (m memElements) Update(context.Context, *entity.Element) error { return nil }

func (m memElements) ListByProject(_ context.Context, projectID string) ([]*entity.Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Element
	for _, e := range m.elements {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m memElements) ListRecentByProject(ctx context.Context, projectID string, limit int) ([]*entity.Element, error) {
	all, _ := m.ListByProject(ctx, projectID)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (m memElements) CountByProject(ctx context.Context, projectID string) (int64, error) {
	all, _ := m.ListByProject(ctx, projectID)
	return int64(len(all)), nil
}

type memTurns struct{ *memStore }

func (m memTurns) Append(_ context.Context, t *entity.ConversationTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, t)
	return nil
}

func (m memTurns) ListByProject(_ context.Context, projectID string) ([]*entity.ConversationTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ConversationTurn
	for _, t := range m.turns {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m memTurns) ListRecentByProject(ctx context.Context, projectID string, limit int) ([]*entity.ConversationTurn, error) {
	all, _ := m.ListByProject(ctx, projectID)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (m memTurns) CountByProject(ctx context.Context, projectID string) (int64, error) {
	all, _ := m.ListByProject(ctx, projectID)
	return int64(len(all)), nil
}

type dispatched struct {
	projectID string
	prompt    string
	requestID any
}

type recordingDispatcher struct {
	calls chan dispatched
	err   error
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{calls: make(chan dispatched, 8)}
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, projectID, prompt string) error {
	if d.err != nil {
		return d.err
	}
	d.calls <- dispatched{projectID: projectID, prompt: prompt, requestID: ctx.Value(logger.RequestIDKey)}
	return nil
}

var errQueueDown = errors.New("queue unavailable")
