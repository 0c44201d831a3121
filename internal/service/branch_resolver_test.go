package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"story-graph-server/internal/generation"
	"story-graph-server/internal/interfaces"
	"story-graph-server/internal/interfaces/mocks"
	"story-graph-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const rootOutput = "```json\n{\"content\":\"Rain hammered the neon.\",\"choices\":[{\"label\":\"Check the alley\",\"intent\":\"investigate\"},{\"label\":\"Call the captain\",\"intent\":\"report\"}],\"title\":\"Rain and Ruin\"}\n```"

const continuationOutput = `{"content":"The alley smelled of gin.","choices":[{"label":"Follow the footprints","intent":"chase"},{"label":"Go back","intent":"retreat"}],"title":"Should Be Ignored"}`

type resolverMocks struct {
	nodes     *mocks.StoryNodeRepository
	progress  *mocks.UserProgressRepository
	generator *mocks.TextGenerator
	publisher *mocks.TurnEventPublisher
}

func newMockedService(t *testing.T) (interfaces.StoryService, resolverMocks) {
	m := resolverMocks{
		nodes:     mocks.NewStoryNodeRepository(t),
		progress:  mocks.NewUserProgressRepository(t),
		generator: mocks.NewTextGenerator(t),
		publisher: mocks.NewTurnEventPublisher(t),
	}
	svc := NewStoryService(m.nodes, m.progress, m.generator, m.publisher, time.Minute, zap.NewNop())
	return svc, m
}

func TestResolveTurnRootNeverLooksUp(t *testing.T) {
	svc, m := newMockedService(t)
	userID := uuid.New()
	rootID := uuid.New()

	m.generator.On("GenerateText", mock.Anything, userID.String(), generation.SystemPrompt(true),
		generation.RootInput("A gritty, rainy 1940s detective mystery.")).Return(rootOutput, nil).Once()

	m.nodes.On("InsertNode", mock.Anything, mock.MatchedBy(func(in models.NewStoryNode) bool {
		return in.ParentNodeID == nil && in.ChapterNumber == 1 && in.PageNumber == 1 &&
			in.ChoiceLabel == models.RootChoiceLabel && len(in.Choices) == 2
	})).Return(&models.StoryNode{ID: rootID, Content: "Rain hammered the neon.", ChapterNumber: 1, PageNumber: 1,
		ChoiceLabel: models.RootChoiceLabel, Choices: []models.Choice{{Label: "Check the alley"}, {Label: "Call the captain"}}}, nil).Once()

	m.progress.On("Upsert", mock.Anything, userID, mock.MatchedBy(func(u models.ProgressUpdate) bool {
		return *u.CurrentNodeID == rootID &&
			assert.ObjectsAreEqual([]uuid.UUID{rootID}, u.PathHistory) &&
			u.SelectedGenre != nil && *u.SelectedGenre == "noir" &&
			u.StoryTitle != nil && *u.StoryTitle == "Rain and Ruin" &&
			u.ExpectedVersion == nil
	})).Return(&models.UserProgress{UserID: userID, Version: 1}, nil).Once()

	m.publisher.On("PublishTurnResolved", mock.Anything, mock.MatchedBy(func(e interfaces.TurnResolvedEvent) bool {
		return e.NodeID == rootID && e.ParentNodeID == nil && !e.Reused && e.Title == "Rain and Ruin"
	})).Return(nil).Once()

	res, err := svc.ResolveTurn(context.Background(), interfaces.TurnRequest{UserID: userID, GenreID: "noir"})
	require.NoError(t, err)
	assert.Equal(t, rootID, res.Node.ID)
	assert.Equal(t, "Rain and Ruin", res.Title)
	assert.False(t, res.Reused)
	assert.NoError(t, res.ProgressErr)
	assert.Len(t, res.Choices, 2)

	m.nodes.AssertNotCalled(t, "FindChild", mock.Anything, mock.Anything, mock.Anything)
	m.progress.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestResolveTurnRootSeedFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		req       interfaces.TurnRequest
		wantSeed  string
		wantGenre *string
	}{
		{name: "raw seed wins", req: interfaces.TurnRequest{Genre: "A heist on Mars", GenreID: "noir"}, wantSeed: "A heist on Mars", wantGenre: strPtr("noir")},
		{name: "raw seed only", req: interfaces.TurnRequest{Genre: "A heist on Mars"}, wantSeed: "A heist on Mars", wantGenre: strPtr("A heist on Mars")},
		{name: "nothing given", req: interfaces.TurnRequest{}, wantSeed: models.DefaultOpeningLine, wantGenre: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newMockedService(t)
			tt.req.UserID = uuid.New()
			node := &models.StoryNode{ID: uuid.New(), ChapterNumber: 1, PageNumber: 1}

			m.generator.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, generation.RootInput(tt.wantSeed)).
				Return(`{"content":"x","choices":[]}`, nil).Once()
			m.nodes.On("InsertNode", mock.Anything, mock.Anything).Return(node, nil).Once()
			m.progress.On("Upsert", mock.Anything, tt.req.UserID, mock.MatchedBy(func(u models.ProgressUpdate) bool {
				if tt.wantGenre == nil {
					return u.SelectedGenre == nil && u.StoryTitle == nil
				}
				return u.SelectedGenre != nil && *u.SelectedGenre == *tt.wantGenre
			})).Return(&models.UserProgress{}, nil).Once()
			m.publisher.On("PublishTurnResolved", mock.Anything, mock.Anything).Return(nil).Once()

			res, err := svc.ResolveTurn(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Empty(t, res.Title)
			assert.NotNil(t, res.Choices)
		})
	}
}

func TestResolveTurnReusesExistingChild(t *testing.T) {
	svc, m := newMockedService(t)
	userID, parentID, childID := uuid.New(), uuid.New(), uuid.New()
	child := &models.StoryNode{ID: childID, ParentNodeID: &parentID, ChoiceLabel: "Check the alley", ChapterNumber: 1, PageNumber: 2,
		Choices: []models.Choice{{Label: "Follow"}}}

	m.progress.On("Get", mock.Anything, userID).
		Return(&models.UserProgress{UserID: userID, PathHistory: []uuid.UUID{parentID}, Version: 4}, nil).Once()
	m.nodes.On("FindChild", mock.Anything, parentID, "Check the alley").Return(child, nil).Once()
	m.progress.On("Upsert", mock.Anything, userID, mock.MatchedBy(func(u models.ProgressUpdate) bool {
		return *u.CurrentNodeID == childID &&
			assert.ObjectsAreEqual([]uuid.UUID{parentID, childID}, u.PathHistory) &&
			u.ExpectedVersion != nil && *u.ExpectedVersion == 4 &&
			u.SelectedGenre == nil && u.StoryTitle == nil
	})).Return(&models.UserProgress{Version: 5}, nil).Once()
	m.publisher.On("PublishTurnResolved", mock.Anything, mock.MatchedBy(func(e interfaces.TurnResolvedEvent) bool {
		return e.Reused && e.NodeID == childID && *e.ParentNodeID == parentID
	})).Return(nil).Once()

	res, err := svc.ResolveTurn(context.Background(), interfaces.TurnRequest{
		UserID: userID, PreviousNodeID: &parentID, ChoiceLabel: "  Check the alley ",
	})
	require.NoError(t, err)
	assert.True(t, res.Reused)
	assert.Equal(t, childID, res.Node.ID)
	assert.Empty(t, res.Title)

	m.generator.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.nodes.AssertNotCalled(t, "InsertNode", mock.Anything, mock.Anything)
}

func TestResolveTurnGeneratesContinuation(t *testing.T) {
	svc, m := newMockedService(t)
	userID, parentID, newID := uuid.New(), uuid.New(), uuid.New()
	parent := &models.StoryNode{ID: parentID, Content: "The rain fell.", ChapterNumber: 3, PageNumber: 7}

	m.progress.On("Get", mock.Anything, userID).Return(nil, models.ErrNotFound).Once()
	m.nodes.On("FindChild", mock.Anything, parentID, "Check the alley").Return(nil, models.ErrNotFound).Once()
	m.nodes.On("FindNode", mock.Anything, parentID).Return(parent, nil).Once()
	m.generator.On("GenerateText", mock.Anything, userID.String(), generation.SystemPrompt(false),
		generation.ContinuationInput("The rain fell.", "Check the alley")).Return(continuationOutput, nil).Once()
	m.nodes.On("InsertNode", mock.Anything, mock.MatchedBy(func(in models.NewStoryNode) bool {
		return in.ChapterNumber == 3 && in.PageNumber == 8 && *in.ParentNodeID == parentID && in.ChoiceLabel == "Check the alley"
	})).Return(&models.StoryNode{ID: newID, ChapterNumber: 3, PageNumber: 8, ParentNodeID: &parentID,
		Choices: []models.Choice{{Label: "Follow the footprints"}, {Label: "Go back"}}}, nil).Once()
	m.progress.On("Upsert", mock.Anything, userID, mock.MatchedBy(func(u models.ProgressUpdate) bool {
		return u.StoryTitle == nil && u.ExpectedVersion == nil &&
			assert.ObjectsAreEqual([]uuid.UUID{newID}, u.PathHistory)
	})).Return(&models.UserProgress{}, nil).Once()
	m.publisher.On("PublishTurnResolved", mock.Anything, mock.Anything).Return(nil).Once()

	res, err := svc.ResolveTurn(context.Background(), interfaces.TurnRequest{
		UserID: userID, PreviousNodeID: &parentID, ChoiceLabel: "Check the alley",
	})
	require.NoError(t, err)
	assert.False(t, res.Reused)
	assert.Empty(t, res.Title, "continuations never carry a title")
	assert.Equal(t, 8, res.Node.PageNumber)
}

func TestResolveTurnFailures(t *testing.T) {
	parentID := uuid.New()
	parent := &models.StoryNode{ID: parentID, Content: "x", ChapterNumber: 1, PageNumber: 1}

	tests := []struct {
		name    string
		setup   func(m resolverMocks, userID uuid.UUID)
		wantErr error
	}{
		{
			name: "missing parent",
			setup: func(m resolverMocks, userID uuid.UUID) {
				m.progress.On("Get", mock.Anything, userID).Return(nil, models.ErrNotFound)
				m.nodes.On("FindChild", mock.Anything, parentID, "Go").Return(nil, models.ErrNotFound)
				m.nodes.On("FindNode", mock.Anything, parentID).Return(nil, models.ErrNotFound)
			},
			wantErr: models.ErrNodeNotFound,
		},
		{
			name: "lookup store failure",
			setup: func(m resolverMocks, userID uuid.UUID) {
				m.progress.On("Get", mock.Anything, userID).Return(nil, models.ErrNotFound)
				m.nodes.On("FindChild", mock.Anything, parentID, "Go").Return(nil, errors.New("connection reset"))
			},
			wantErr: models.ErrPersistence,
		},
		{
			name: "generator failure",
			setup: func(m resolverMocks, userID uuid.UUID) {
				m.progress.On("Get", mock.Anything, userID).Return(nil, models.ErrNotFound)
				m.nodes.On("FindChild", mock.Anything, parentID, "Go").Return(nil, models.ErrNotFound)
				m.nodes.On("FindNode", mock.Anything, parentID).Return(parent, nil)
				m.generator.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return("", context.DeadlineExceeded)
			},
			wantErr: models.ErrGenerationFailed,
		},
		{
			name: "unparseable output",
			setup: func(m resolverMocks, userID uuid.UUID) {
				m.progress.On("Get", mock.Anything, userID).Return(nil, models.ErrNotFound)
				m.nodes.On("FindChild", mock.Anything, parentID, "Go").Return(nil, models.ErrNotFound)
				m.nodes.On("FindNode", mock.Anything, parentID).Return(parent, nil)
				m.generator.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return("I cannot write that story.", nil)
			},
			wantErr: models.ErrGenerationParse,
		},
		{
			name: "insert failure",
			setup: func(m resolverMocks, userID uuid.UUID) {
				m.progress.On("Get", mock.Anything, userID).Return(nil, models.ErrNotFound)
				m.nodes.On("FindChild", mock.Anything, parentID, "Go").Return(nil, models.ErrNotFound)
				m.nodes.On("FindNode", mock.Anything, parentID).Return(parent, nil)
				m.generator.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(`{"content":"x","choices":[]}`, nil)
				m.nodes.On("InsertNode", mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))
			},
			wantErr: models.ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newMockedService(t)
			userID := uuid.New()
			tt.setup(m, userID)

			res, err := svc.ResolveTurn(context.Background(), interfaces.TurnRequest{
				UserID: userID, PreviousNodeID: &parentID, ChoiceLabel: "Go",
			})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			m.progress.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
			m.publisher.AssertNotCalled(t, "PublishTurnResolved", mock.Anything, mock.Anything)
		})
	}
}

func TestResolveTurnValidation(t *testing.T) {
	svc, _ := newMockedService(t)
	parentID := uuid.New()

	_, err := svc.ResolveTurn(context.Background(), interfaces.TurnRequest{})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	_, err = svc.ResolveTurn(context.Background(), interfaces.TurnRequest{UserID: uuid.New(), PreviousNodeID: &parentID, ChoiceLabel: "   "})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	_, err = svc.ResolveTurn(context.Background(), interfaces.TurnRequest{UserID: uuid.New(), GenreID: "western"})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestResolveTurnEdgeConflictIsReuse(t *testing.T) {
	svc, m := newMockedService(t)
	userID, parentID := uuid.New(), uuid.New()
	winner := &models.StoryNode{ID: uuid.New(), ParentNodeID: &parentID, ChapterNumber: 1, PageNumber: 2}

	m.progress.On("Get", mock.Anything, userID).Return(nil, models.ErrNotFound)
	m.nodes.On("FindChild", mock.Anything, parentID, "Go").Return(nil, models.ErrNotFound)
	m.nodes.On("FindNode", mock.Anything, parentID).Return(&models.StoryNode{ID: parentID, ChapterNumber: 1, PageNumber: 1}, nil)
	m.generator.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(`{"content":"x","choices":[]}`, nil)
	m.nodes.On("InsertNode", mock.Anything, mock.Anything).Return(winner, models.ErrEdgeExists)
	m.progress.On("Upsert", mock.Anything, userID, mock.Anything).Return(&models.UserProgress{}, nil)
	m.publisher.On("PublishTurnResolved", mock.Anything, mock.Anything).Return(nil)

	res, err := svc.ResolveTurn(context.Background(), interfaces.TurnRequest{UserID: userID, PreviousNodeID: &parentID, ChoiceLabel: "Go"})
	require.NoError(t, err)
	assert.True(t, res.Reused)
	assert.Equal(t, winner.ID, res.Node.ID)
}

func TestResolveTurnProgressFailureStillReturnsNode(t *testing.T) {
	svc, m := newMockedService(t)
	userID := uuid.New()
	node := &models.StoryNode{ID: uuid.New(), ChapterNumber: 1, PageNumber: 1}

	m.generator.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(rootOutput, nil)
	m.nodes.On("InsertNode", mock.Anything, mock.Anything).Return(node, nil)
	m.progress.On("Upsert", mock.Anything, userID, mock.Anything).Return(nil, models.ErrProgressConflict)
	m.publisher.On("PublishTurnResolved", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	res, err := svc.ResolveTurn(context.Background(), interfaces.TurnRequest{UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, node.ID, res.Node.ID)
	require.Error(t, res.ProgressErr)
	assert.True(t, errors.Is(res.ProgressErr, models.ErrPersistence))
	assert.True(t, errors.Is(res.ProgressErr, models.ErrProgressConflict))
}

// --- scenarios over the in-memory store ---

func newMemService(gen interfaces.TextGenerator) (interfaces.StoryService, *memStore) {
	store := newMemStore()
	return NewStoryService(store, store.progressRepo(), gen, noopPublisher{}, 0, zap.NewNop()), store
}

func TestRainAndRuinScenario(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{rootOutput, continuationOutput}}
	svc, store := newMemService(gen)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	root, err := svc.ResolveTurn(ctx, interfaces.TurnRequest{UserID: alice, GenreID: "noir"})
	require.NoError(t, err)
	assert.Equal(t, "Rain and Ruin", root.Title)
	assert.Equal(t, models.RootChoiceLabel, root.Node.ChoiceLabel)

	alley, err := svc.ResolveTurn(ctx, interfaces.TurnRequest{UserID: alice, PreviousNodeID: &root.Node.ID, ChoiceLabel: "Check the alley"})
	require.NoError(t, err)
	assert.False(t, alley.Reused)
	assert.Equal(t, 2, alley.Node.PageNumber)

	view, err := svc.GetStory(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, view.Progress)
	assert.Equal(t, "Rain and Ruin", *view.Progress.StoryTitle, "continuation must not clobber the title")
	assert.Equal(t, "noir", *view.Progress.SelectedGenre)
	require.Len(t, view.Nodes, 2)
	assert.Equal(t, root.Node.ID, view.Nodes[0].ID)
	assert.Equal(t, alley.Node.ID, view.Nodes[1].ID)

	// Bob takes Alice's branch from her root and gets her node without generation.
	_, err = store.progressRepo().Upsert(ctx, bob, models.ProgressUpdate{CurrentNodeID: &root.Node.ID, PathHistory: []uuid.UUID{root.Node.ID}})
	require.NoError(t, err)
	before := gen.calls()
	reused, err := svc.ResolveTurn(ctx, interfaces.TurnRequest{UserID: bob, PreviousNodeID: &root.Node.ID, ChoiceLabel: "Check the alley"})
	require.NoError(t, err)
	assert.True(t, reused.Reused)
	assert.Equal(t, alley.Node.ID, reused.Node.ID)
	assert.Equal(t, before, gen.calls())
}

func TestPathMonotonicity(t *testing.T) {
	svc, _ := newMemService(&scriptedGenerator{})
	ctx := context.Background()
	userID := uuid.New()

	res, err := svc.ResolveTurn(ctx, interfaces.TurnRequest{UserID: userID})
	require.NoError(t, err)

	labels := []string{"Wait", "Leave", "Wait", "Wait"}
	var prevPath []uuid.UUID
	current := res.Node.ID
	for i, label := range labels {
		view, err := svc.GetStory(ctx, userID)
		require.NoError(t, err)
		prevPath = view.Progress.PathHistory

		res, err = svc.ResolveTurn(ctx, interfaces.TurnRequest{UserID: userID, PreviousNodeID: &current, ChoiceLabel: label})
		require.NoError(t, err)
		require.NoError(t, res.ProgressErr)
		current = res.Node.ID

		view, err = svc.GetStory(ctx, userID)
		require.NoError(t, err)
		path := view.Progress.PathHistory
		assert.Len(t, path, i+2)
		assert.Equal(t, prevPath, path[:len(path)-1])
		assert.Equal(t, current, path[len(path)-1])
		assert.Equal(t, i+2, res.Node.PageNumber)
	}
}

func strPtr(s string) *string { return &s }
