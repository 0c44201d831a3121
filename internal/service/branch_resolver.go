package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"story-graph-server/internal/generation"
	"story-graph-server/internal/interfaces"
	"story-graph-server/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// turnState carries one turn through LOOKUP -> GENERATE -> PERSIST -> ADVANCE.
type turnState struct {
	req      interfaces.TurnRequest
	kind     string
	log      *zap.Logger
	span     trace.Span
	progress *models.UserProgress // прочитан в начале хода, nil если истории нет

	node   *models.StoryNode
	title  string
	reused bool
}

// ResolveTurn produces the node for one turn: it reuses the child reached by
// (previous node, choice label) when it exists and generates it otherwise, then
// moves the user's progress pointer onto it.
//
// Failures before a node exists are returned as errors. A failure to record
// progress is reported in TurnResult.ProgressErr alongside the node.
func (s *storyServiceImpl) ResolveTurn(ctx context.Context, req interfaces.TurnRequest) (*interfaces.TurnResult, error) {
	req.ChoiceLabel = strings.TrimSpace(req.ChoiceLabel)
	req.Genre = strings.TrimSpace(req.Genre)
	req.GenreID = strings.TrimSpace(req.GenreID)

	if err := validateTurnRequest(req); err != nil {
		return nil, err
	}

	if s.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.turnTimeout)
		defer cancel()
	}

	st := &turnState{req: req, kind: turnKindRoot}
	if req.PreviousNodeID != nil {
		st.kind = turnKindContinuation
	}

	ctx, span := s.tracer.Start(ctx, "BranchResolver.ResolveTurn", trace.WithAttributes(
		attribute.String("turn.kind", st.kind),
		attribute.String("user.id", req.UserID.String()),
	))
	defer span.End()
	st.span = span

	logFields := []zap.Field{zap.Stringer("userID", req.UserID), zap.String("kind", st.kind)}
	if req.PreviousNodeID != nil {
		logFields = append(logFields, zap.Stringer("previousNodeID", *req.PreviousNodeID), zap.String("choiceLabel", req.ChoiceLabel))
	}
	st.log = s.logger.With(logFields...)

	startTime := s.now()
	result, err := s.resolve(ctx, st)
	turnDuration.WithLabelValues(st.kind).Observe(time.Since(startTime).Seconds())

	if err != nil {
		turnsTotal.WithLabelValues(st.kind, turnOutcomeFailed).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		st.log.Warn("Turn failed", zap.Error(err))
		return nil, err
	}

	outcome := turnOutcomeGenerated
	if result.Reused {
		outcome = turnOutcomeReused
	}
	if result.ProgressErr != nil {
		outcome = turnOutcomeProgressFailed
	}
	turnsTotal.WithLabelValues(st.kind, outcome).Inc()
	span.SetAttributes(
		attribute.String("node.id", result.Node.ID.String()),
		attribute.Bool("turn.reused", result.Reused),
	)
	return result, nil
}

func (s *storyServiceImpl) resolve(ctx context.Context, st *turnState) (*interfaces.TurnResult, error) {
	var err error
	if st.kind == turnKindRoot {
		err = s.resolveRoot(ctx, st)
	} else {
		err = s.resolveContinuation(ctx, st)
	}
	if err != nil {
		return nil, err
	}

	result := &interfaces.TurnResult{
		Node:    st.node,
		Choices: st.node.Choices,
		Title:   st.title,
		Reused:  st.reused,
	}
	if result.Choices == nil {
		result.Choices = []models.Choice{}
	}

	// ADVANCE
	st.span.AddEvent("advance")
	if _, err := s.progress.Upsert(ctx, st.req.UserID, s.progressUpdate(st)); err != nil {
		result.ProgressErr = asPersistenceError(err)
		st.span.RecordError(result.ProgressErr)
		st.log.Error("Node resolved but progress was not saved",
			zap.Stringer("nodeID", st.node.ID), zap.Error(result.ProgressErr))
	} else {
		st.log.Info("Turn resolved", zap.Stringer("nodeID", st.node.ID), zap.Bool("reused", st.reused))
	}

	s.publishTurnResolved(ctx, st)
	return result, nil
}

// resolveRoot всегда генерирует новый корень: поиск не выполняется.
func (s *storyServiceImpl) resolveRoot(ctx context.Context, st *turnState) error {
	seed := st.req.Genre
	if seed == "" && st.req.GenreID != "" {
		genre, _ := models.FindGenre(st.req.GenreID)
		seed = genre.Prompt
	}
	if seed == "" {
		seed = models.DefaultOpeningLine
	}

	output, err := s.generate(ctx, st, generation.RootInput(seed), true)
	if err != nil {
		return err
	}
	st.title = output.Title

	return s.persist(ctx, st, models.NewStoryNode{
		Content:       output.Content,
		ChapterNumber: 1,
		PageNumber:    1,
		ChoiceLabel:   models.RootChoiceLabel,
		Choices:       output.Choices,
	})
}

func (s *storyServiceImpl) resolveContinuation(ctx context.Context, st *turnState) error {
	parentID := *st.req.PreviousNodeID

	progress, err := s.progress.Get(ctx, st.req.UserID)
	switch {
	case err == nil:
		st.progress = progress
	case errors.Is(err, models.ErrNotFound):
		st.log.Debug("Continuation without stored progress")
	default:
		return asPersistenceError(err)
	}

	// LOOKUP
	st.span.AddEvent("lookup")
	existing, err := s.nodes.FindChild(ctx, parentID, st.req.ChoiceLabel)
	if err == nil {
		st.span.AddEvent("lookup.hit", trace.WithAttributes(attribute.String("node.id", existing.ID.String())))
		st.node = existing
		st.reused = true
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return asPersistenceError(err)
	}

	parent, err := s.nodes.FindNode(ctx, parentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: %s", models.ErrNodeNotFound, parentID)
		}
		return asPersistenceError(err)
	}

	// GENERATE
	output, err := s.generate(ctx, st, generation.ContinuationInput(parent.Content, st.req.ChoiceLabel), false)
	if err != nil {
		return err
	}

	// PERSIST
	return s.persist(ctx, st, models.NewStoryNode{
		Content:       output.Content,
		ChapterNumber: parent.ChapterNumber,
		PageNumber:    parent.PageNumber + 1,
		ParentNodeID:  &parentID,
		ChoiceLabel:   st.req.ChoiceLabel,
		Choices:       output.Choices,
	})
}

func (s *storyServiceImpl) generate(ctx context.Context, st *turnState, userInput string, isRoot bool) (*generation.StoryOutput, error) {
	st.span.AddEvent("generate")
	raw, err := s.generator.GenerateText(ctx, st.req.UserID.String(), generation.SystemPrompt(isRoot), userInput)
	if err != nil {
		if errors.Is(err, models.ErrGenerationFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", models.ErrGenerationFailed, err)
	}

	output, err := generation.ParseStoryOutput(raw, isRoot)
	if err != nil {
		st.log.Warn("Generated text could not be parsed", zap.Int("rawLength", len(raw)), zap.Error(err))
		return nil, err
	}
	return output, nil
}

// persist вставляет узел. Если ребро уже занято параллельным ходом,
// используется узел победителя.
func (s *storyServiceImpl) persist(ctx context.Context, st *turnState, in models.NewStoryNode) error {
	st.span.AddEvent("persist")
	node, err := s.nodes.InsertNode(ctx, in)
	if err != nil {
		if errors.Is(err, models.ErrEdgeExists) && node != nil {
			st.log.Info("Edge materialized concurrently, reusing winner", zap.Stringer("nodeID", node.ID))
			st.node = node
			st.reused = true
			st.title = ""
			return nil
		}
		return asPersistenceError(err)
	}
	st.node = node
	return nil
}

func (s *storyServiceImpl) progressUpdate(st *turnState) models.ProgressUpdate {
	nodeID := st.node.ID
	update := models.ProgressUpdate{CurrentNodeID: &nodeID}

	if st.kind == turnKindRoot {
		update.PathHistory = []uuid.UUID{nodeID}
		if genre := selectedGenre(st.req); genre != "" {
			update.SelectedGenre = &genre
		}
	} else {
		var previous []uuid.UUID
		if st.progress != nil {
			previous = st.progress.PathHistory
			version := st.progress.Version
			update.ExpectedVersion = &version
		}
		path := make([]uuid.UUID, 0, len(previous)+1)
		path = append(path, previous...)
		update.PathHistory = append(path, nodeID)
	}

	if st.title != "" {
		title := st.title
		update.StoryTitle = &title
	}
	return update
}

func (s *storyServiceImpl) publishTurnResolved(ctx context.Context, st *turnState) {
	event := interfaces.TurnResolvedEvent{
		UserID:       st.req.UserID,
		NodeID:       st.node.ID,
		ParentNodeID: st.node.ParentNodeID,
		Reused:       st.reused,
		Title:        st.title,
		OccurredAt:   s.now().UTC(),
	}
	if err := s.publisher.PublishTurnResolved(ctx, event); err != nil {
		st.log.Warn("Failed to publish turn event", zap.Stringer("nodeID", st.node.ID), zap.Error(err))
	}
}

func validateTurnRequest(req interfaces.TurnRequest) error {
	if req.UserID == uuid.Nil {
		return fmt.Errorf("%w: userId is required", models.ErrInvalidInput)
	}
	if req.PreviousNodeID != nil && req.ChoiceLabel == "" {
		return fmt.Errorf("%w: choiceLabel is required when previousNodeId is set", models.ErrInvalidInput)
	}
	if req.PreviousNodeID == nil && req.GenreID != "" {
		if _, ok := models.FindGenre(req.GenreID); !ok {
			return fmt.Errorf("%w: unknown genreId %q", models.ErrInvalidInput, req.GenreID)
		}
	}
	return nil
}

// selectedGenre: id каталога, иначе исходный текст жанра.
func selectedGenre(req interfaces.TurnRequest) string {
	if req.GenreID != "" {
		return req.GenreID
	}
	return req.Genre
}
