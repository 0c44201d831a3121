package service

import (
	"context"
	"sync"
	"time"

	"story-graph-server/internal/interfaces"
	"story-graph-server/internal/models"

	"github.com/google/uuid"
)

// memStore is an in-memory Story Graph Store with the same edge and version
// semantics as the Postgres repositories.
type memStore struct {
	mu       sync.Mutex
	nodes    map[uuid.UUID]*models.StoryNode
	edges    map[string]uuid.UUID
	progress map[uuid.UUID]*models.UserProgress
}

var (
	_ interfaces.StoryNodeRepository    = (*memStore)(nil)
	_ interfaces.UserProgressRepository = (*memProgress)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		nodes:    map[uuid.UUID]*models.StoryNode{},
		edges:    map[string]uuid.UUID{},
		progress: map[uuid.UUID]*models.UserProgress{},
	}
}

func memEdgeKey(parent uuid.UUID, label string) string { return parent.String() + "|" + label }

func (m *memStore) FindNode(_ context.Context, id uuid.UUID) (*models.StoryNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return n, nil
}

func (m *memStore) FindChild(_ context.Context, parentID uuid.UUID, label string) (*models.StoryNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.edges[memEdgeKey(parentID, label)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return m.nodes[id], nil
}

func (m *memStore) FindNodesByIDs(_ context.Context, ids []uuid.UUID) ([]*models.StoryNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.StoryNode{}
	for _, id := range ids {
		if n, ok := m.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) InsertNode(_ context.Context, in models.NewStoryNode) (*models.StoryNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.ParentNodeID != nil {
		if id, ok := m.edges[memEdgeKey(*in.ParentNodeID, in.ChoiceLabel)]; ok {
			return m.nodes[id], models.ErrEdgeExists
		}
	}
	n := &models.StoryNode{
		ID:            uuid.New(),
		Content:       in.Content,
		ChapterNumber: in.ChapterNumber,
		PageNumber:    in.PageNumber,
		ParentNodeID:  in.ParentNodeID,
		ChoiceLabel:   in.ChoiceLabel,
		Choices:       in.Choices,
		CreatedAt:     time.Now(),
	}
	m.nodes[n.ID] = n
	if in.ParentNodeID != nil {
		m.edges[memEdgeKey(*in.ParentNodeID, in.ChoiceLabel)] = n.ID
	}
	return n, nil
}

func (m *memStore) deleteNode(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, id)
}

func (m *memStore) progressRepo() *memProgress { return &memProgress{m} }

type memProgress struct{ m *memStore }

func (p *memProgress) Get(_ context.Context, userID uuid.UUID) (*models.UserProgress, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	pr, ok := p.m.progress[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *pr
	cp.PathHistory = append([]uuid.UUID(nil), pr.PathHistory...)
	return &cp, nil
}

func (p *memProgress) Upsert(_ context.Context, userID uuid.UUID, u models.ProgressUpdate) (*models.UserProgress, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	pr, ok := p.m.progress[userID]
	if u.ExpectedVersion != nil && (!ok || pr.Version != *u.ExpectedVersion) {
		return nil, models.ErrProgressConflict
	}
	if !ok {
		pr = &models.UserProgress{UserID: userID, PathHistory: []uuid.UUID{}, CreatedAt: time.Now()}
		p.m.progress[userID] = pr
	}
	if u.CurrentNodeID != nil {
		pr.CurrentNodeID = *u.CurrentNodeID
	}
	if u.PathHistory != nil {
		pr.PathHistory = append([]uuid.UUID(nil), u.PathHistory...)
	}
	if u.SelectedGenre != nil {
		g := *u.SelectedGenre
		pr.SelectedGenre = &g
	}
	if u.StoryTitle != nil && *u.StoryTitle != "" {
		t := *u.StoryTitle
		pr.StoryTitle = &t
	}
	pr.Version++
	pr.UpdatedAt = time.Now()
	cp := *pr
	return &cp, nil
}

func (p *memProgress) Delete(_ context.Context, userID uuid.UUID) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	delete(p.m.progress, userID)
	return nil
}

// scriptedGenerator returns canned outputs in order and records the prompts it saw.
type scriptedGenerator struct {
	mu      sync.Mutex
	outputs []string
	inputs  []string
}

func (g *scriptedGenerator) GenerateText(_ context.Context, _ string, _ string, userInput string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inputs = append(g.inputs, userInput)
	if len(g.outputs) == 0 {
		return `{"content":"Fog rolls in.","choices":[{"label":"Wait","intent":"w"},{"label":"Leave","intent":"l"}]}`, nil
	}
	out := g.outputs[0]
	g.outputs = g.outputs[1:]
	return out, nil
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inputs)
}

type noopPublisher struct{}

func (noopPublisher) PublishTurnResolved(context.Context, interfaces.TurnResolvedEvent) error {
	return nil
}
