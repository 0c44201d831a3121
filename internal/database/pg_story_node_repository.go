package database

import (
	"context"
	"errors"
	"fmt"

	"story-graph-server/internal/interfaces"
	"story-graph-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.StoryNodeRepository = (*pgStoryNodeRepository)(nil)

const storyNodeColumns = `id, content, chapter_number, page_number, parent_node_id, choice_label, choices, created_at`

const getStoryNodeByIDQuery = `
SELECT ` + storyNodeColumns + `
FROM story_nodes
WHERE id = $1`

const getStoryNodeChildQuery = `
SELECT ` + storyNodeColumns + `
FROM story_nodes
WHERE parent_node_id = $1 AND choice_label = $2`

const getStoryNodesByIDsQuery = `
SELECT ` + storyNodeColumns + `
FROM story_nodes
WHERE id = ANY($1)`

// Конфликт по ребру (parent, label) не вставляет строку и ничего не возвращает.
const insertStoryNodeQuery = `
INSERT INTO story_nodes (content, chapter_number, page_number, parent_node_id, choice_label, choices)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (parent_node_id, choice_label) WHERE parent_node_id IS NOT NULL DO NOTHING
RETURNING ` + storyNodeColumns

type pgStoryNodeRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgStoryNodeRepository creates a Postgres backed node repository.
func NewPgStoryNodeRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.StoryNodeRepository {
	return &pgStoryNodeRepository{
		db:     db,
		logger: logger.Named("PgStoryNodeRepo"),
	}
}

func (r *pgStoryNodeRepository) FindNode(ctx context.Context, id uuid.UUID) (*models.StoryNode, error) {
	logFields := []zap.Field{zap.Stringer("nodeID", id)}
	node := &models.StoryNode{}

	if err := pgxscan.Get(ctx, r.db, node, getStoryNodeByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Story node not found", logFields...)
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get story node", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("%w: get story node %s: %v", models.ErrPersistence, id, err)
	}
	return node, nil
}

func (r *pgStoryNodeRepository) FindChild(ctx context.Context, parentID uuid.UUID, choiceLabel string) (*models.StoryNode, error) {
	logFields := []zap.Field{zap.Stringer("parentNodeID", parentID), zap.String("choiceLabel", choiceLabel)}
	node := &models.StoryNode{}

	if err := pgxscan.Get(ctx, r.db, node, getStoryNodeChildQuery, parentID, choiceLabel); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Child node not materialized yet", logFields...)
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to look up child node", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("%w: find child of %s: %v", models.ErrPersistence, parentID, err)
	}
	r.logger.Debug("Found existing child node", append(logFields, zap.Stringer("nodeID", node.ID))...)
	return node, nil
}

func (r *pgStoryNodeRepository) FindNodesByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.StoryNode, error) {
	if len(ids) == 0 {
		return []*models.StoryNode{}, nil
	}
	logFields := []zap.Field{zap.Int("requested", len(ids))}

	var nodes []*models.StoryNode
	if err := pgxscan.Select(ctx, r.db, &nodes, getStoryNodesByIDsQuery, ids); err != nil {
		r.logger.Error("Failed to batch fetch story nodes", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("%w: batch fetch story nodes: %v", models.ErrPersistence, err)
	}
	r.logger.Debug("Batch fetched story nodes", append(logFields, zap.Int("found", len(nodes)))...)
	return nodes, nil
}

func (r *pgStoryNodeRepository) InsertNode(ctx context.Context, in models.NewStoryNode) (*models.StoryNode, error) {
	logFields := []zap.Field{
		zap.Int("chapter", in.ChapterNumber),
		zap.Int("page", in.PageNumber),
		zap.String("choiceLabel", in.ChoiceLabel),
	}
	if in.ParentNodeID != nil {
		logFields = append(logFields, zap.Stringer("parentNodeID", *in.ParentNodeID))
	}

	choices := in.Choices
	if choices == nil {
		choices = []models.Choice{}
	}

	node := &models.StoryNode{}
	err := pgxscan.Get(ctx, r.db, node, insertStoryNodeQuery,
		in.Content,
		in.ChapterNumber,
		in.PageNumber,
		in.ParentNodeID,
		in.ChoiceLabel,
		choices,
	)
	if err == nil {
		r.logger.Info("Story node inserted", append(logFields, zap.Stringer("nodeID", node.ID))...)
		return node, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) || in.ParentNodeID == nil {
		r.logger.Error("Failed to insert story node", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("%w: insert story node: %v", models.ErrPersistence, err)
	}

	// Ребро уже материализовано другим запросом, возвращаем победителя.
	existing, findErr := r.FindChild(ctx, *in.ParentNodeID, in.ChoiceLabel)
	if findErr != nil {
		r.logger.Error("Edge conflict but winning node could not be fetched", append(logFields, zap.Error(findErr))...)
		return nil, fmt.Errorf("%w: refetch after edge conflict: %v", models.ErrPersistence, findErr)
	}
	r.logger.Info("Edge already materialized, returning existing node", append(logFields, zap.Stringer("nodeID", existing.ID))...)
	return existing, models.ErrEdgeExists
}
