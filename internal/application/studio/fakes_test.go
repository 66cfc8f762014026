package studio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"z-script-ai-api/internal/application/budget"
	"z-script-ai-api/internal/domain/entity"
)

type memTurns struct {
	mu    sync.Mutex
	turns []*entity.ConversationTurn
	err   error
}

func (m *memTurns) Append(_ context.Context, t *entity.ConversationTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	t.Seq = int64(len(m.turns) + 1)
	t.ID = fmt.Sprintf("turn-%d", t.Seq)
	m.turns = append(m.turns, t)
	return nil
}

func (m *memTurns) ListByProject(_ context.Context, projectID string) ([]*entity.ConversationTurn, error) {
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

func (m *memTurns) ListRecentByProject(ctx context.Context, projectID string, limit int) ([]*entity.ConversationTurn, error) {
	all, _ := m.ListByProject(ctx, projectID)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (m *memTurns) CountByProject(ctx context.Context, projectID string) (int64, error) {
	all, _ := m.ListByProject(ctx, projectID)
	return int64(len(all)), nil
}

func (m *memTurns) byRole(role entity.Role) []*entity.ConversationTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ConversationTurn
	for _, t := range m.turns {
		if t.Role == role {
			out = append(out, t)
		}
	}
	return out
}

type memElements struct {
	mu       sync.Mutex
	elements []*entity.Element
}

func (m *memElements) Append(_ context.Context, el *entity.Element) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := 0
	for _, e := range m.elements {
		if e.ProjectID == el.ProjectID && e.Order >= next {
			next = e.Order + 1
		}
	}
	el.Order = next
	if el.ID == "" {
		el.ID = fmt.Sprintf("el-%d", len(m.elements)+1)
	}
	m.elements = append(m.elements, el)
	return nil
}

func (m *memElements) GetByID(_ context.Context, id string) (*entity.Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.elements {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (m *memElements) Update(context.Context, *entity.Element) error { return nil }

func (m *memElements) ListByProject(_ context.Context, projectID string) ([]*entity.Element, error) {
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

func (m *memElements) ListRecentByProject(ctx context.Context, projectID string, limit int) ([]*entity.Element, error) {
	all, _ := m.ListByProject(ctx, projectID)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (m *memElements) CountByProject(ctx context.Context, projectID string) (int64, error) {
	all, _ := m.ListByProject(ctx, projectID)
	return int64(len(all)), nil
}

// scriptedModel 按调用次序返回预设结果
type scriptedModel struct {
	mu       sync.Mutex
	steps    []func(*CompletionRequest) (*schema.Message, error)
	requests []*CompletionRequest
}

func (m *scriptedModel) Complete(_ context.Context, req *CompletionRequest) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := len(m.requests)
	m.requests = append(m.requests, req)
	if i >= len(m.steps) {
		return nil, errors.New("unexpected model call")
	}
	return m.steps[i](req)
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func reply(text string) func(*CompletionRequest) (*schema.Message, error) {
	return func(*CompletionRequest) (*schema.Message, error) {
		return schema.AssistantMessage(text, nil), nil
	}
}

func toolReply(calls ...schema.ToolCall) func(*CompletionRequest) (*schema.Message, error) {
	return func(*CompletionRequest) (*schema.Message, error) {
		return schema.AssistantMessage("", calls), nil
	}
}

func failWith(err error) func(*CompletionRequest) (*schema.Message, error) {
	return func(*CompletionRequest) (*schema.Message, error) {
		return nil, err
	}
}

func call(id, name, args string) schema.ToolCall {
	return schema.ToolCall{ID: id, Type: "function", Function: schema.FunctionCall{Name: name, Arguments: args}}
}

type fakeImages struct {
	url   string
	err   error
	calls int
}

func (f *fakeImages) Generate(context.Context, string) (string, error) {
	f.calls++
	return f.url, f.err
}

type fakeVideos struct {
	result *VideoResult
	err    error
	calls  int
	last   VideoRequest
}

func (f *fakeVideos) Generate(_ context.Context, req VideoRequest) (*VideoResult, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &VideoResult{URL: req.ImageURL}, nil
}

type fakePublisher struct {
	err   error
	names []string
}

func (f *fakePublisher) Publish(_ context.Context, sourceURL, name string) (string, error) {
	f.names = append(f.names, name)
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example/" + name, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []entity.StudioEvent
}

func (s *recordingSink) Emit(_ context.Context, _ string, ev entity.StudioEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) names() []entity.EventName {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.EventName, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Name())
	}
	return out
}

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

type harness struct {
	turns     *memTurns
	elements  *memElements
	model     *scriptedModel
	images    *fakeImages
	videos    *fakeVideos
	publisher *fakePublisher
	sink      *recordingSink
	sleeper   *recordingSleeper
	ledger    *budget.Ledger
	executor  *ToolExecutor
	orch      *Orchestrator
}

func newHarness(opts ...ExecutorOption) *harness {
	h := &harness{
		turns:     &memTurns{},
		elements:  &memElements{},
		model:     &scriptedModel{},
		images:    &fakeImages{url: "https://images.example/tmp.png"},
		videos:    &fakeVideos{},
		publisher: &fakePublisher{},
		sink:      &recordingSink{},
		sleeper:   &recordingSleeper{},
		ledger:    budget.NewLedger(budget.DefaultLimits),
	}
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	base := []ExecutorOption{WithClock(func() time.Time { return clock })}
	h.executor = NewToolExecutor(h.elements, h.images, h.videos, h.publisher, h.ledger, h.sink, append(base, opts...)...)
	h.orch = NewOrchestrator(
		OrchestratorConfig{Retry: DefaultRetryPolicy, FollowUpMaxTokens: 1000},
		h.turns, h.model, h.executor, h.sink,
		WithSleeper(h.sleeper),
		WithFallbackPool(NewFallbackPool(func(int) int { return 1 })),
	)
	return h
}
