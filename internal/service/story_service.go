package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"story-graph-server/internal/interfaces"
	"story-graph-server/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.StoryService = (*storyServiceImpl)(nil)

const tracerName = "story-graph-server/internal/service"

type storyServiceImpl struct {
	nodes       interfaces.StoryNodeRepository
	progress    interfaces.UserProgressRepository
	generator   interfaces.TextGenerator
	publisher   interfaces.TurnEventPublisher
	turnTimeout time.Duration
	tracer      trace.Tracer
	logger      *zap.Logger
	now         func() time.Time
}

// NewStoryService собирает сервис историй из его коллабораторов.
// turnTimeout <= 0 отключает ограничение времени хода.
func NewStoryService(
	nodes interfaces.StoryNodeRepository,
	progress interfaces.UserProgressRepository,
	generator interfaces.TextGenerator,
	publisher interfaces.TurnEventPublisher,
	turnTimeout time.Duration,
	logger *zap.Logger,
) interfaces.StoryService {
	return &storyServiceImpl{
		nodes:       nodes,
		progress:    progress,
		generator:   generator,
		publisher:   publisher,
		turnTimeout: turnTimeout,
		tracer:      otel.Tracer(tracerName),
		logger:      logger.Named("StoryService"),
		now:         time.Now,
	}
}

// GetStory returns the caller's progress and the nodes of its path in path
// order. Ids whose node no longer exists are skipped.
func (s *storyServiceImpl) GetStory(ctx context.Context, userID uuid.UUID) (*interfaces.StoryView, error) {
	log := s.logger.With(zap.Stringer("userID", userID))

	progress, err := s.progress.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Debug("No progress yet")
			return &interfaces.StoryView{Nodes: []*models.StoryNode{}}, nil
		}
		log.Error("Failed to load progress", zap.Error(err))
		return nil, asPersistenceError(err)
	}

	found, err := s.nodes.FindNodesByIDs(ctx, progress.PathHistory)
	if err != nil {
		log.Error("Failed to load path nodes", zap.Error(err))
		return nil, asPersistenceError(err)
	}

	byID := make(map[uuid.UUID]*models.StoryNode, len(found))
	for _, n := range found {
		byID[n.ID] = n
	}
	ordered := make([]*models.StoryNode, 0, len(progress.PathHistory))
	for _, id := range progress.PathHistory {
		if n, ok := byID[id]; ok {
			ordered = append(ordered, n)
		}
	}
	if len(ordered) < len(progress.PathHistory) {
		log.Warn("Path references missing nodes", zap.Int("pathLength", len(progress.PathHistory)), zap.Int("found", len(ordered)))
	}

	return &interfaces.StoryView{Progress: progress, Nodes: ordered}, nil
}

// RestartStory drops the caller's progress. Nodes stay in the shared graph.
func (s *storyServiceImpl) RestartStory(ctx context.Context, userID uuid.UUID) error {
	if err := s.progress.Delete(ctx, userID); err != nil {
		s.logger.Error("Failed to restart story", zap.Stringer("userID", userID), zap.Error(err))
		return asPersistenceError(err)
	}
	s.logger.Info("Story restarted", zap.Stringer("userID", userID))
	return nil
}

func (s *storyServiceImpl) ListGenres() []models.Genre {
	return models.Genres()
}

// asPersistenceError гарантирует, что ошибка хранилища несет ErrPersistence.
func asPersistenceError(err error) error {
	if errors.Is(err, models.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrPersistence, err)
}
