package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"story-graph-server/internal/interfaces"
	"story-graph-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.UserProgressRepository = (*pgUserProgressRepository)(nil)

const userProgressColumns = `user_id, current_node_id, path_history, selected_genre, story_title, version, created_at, updated_at`

const getUserProgressQuery = `
SELECT ` + userProgressColumns + `
FROM user_progress
WHERE user_id = $1`

// NULL аргумент оставляет сохраненное значение; пустой заголовок тоже.
const upsertUserProgressQuery = `
INSERT INTO user_progress (user_id, current_node_id, path_history, selected_genre, story_title, version, created_at, updated_at)
VALUES ($1, $2, COALESCE($3::text[], '{}'), $4, NULLIF($5::text, ''), 1, $6, $6)
ON CONFLICT (user_id) DO UPDATE SET
    current_node_id = EXCLUDED.current_node_id,
    path_history    = COALESCE($3::text[], user_progress.path_history),
    selected_genre  = COALESCE($4::text, user_progress.selected_genre),
    story_title     = COALESCE(NULLIF($5::text, ''), user_progress.story_title),
    version         = user_progress.version + 1,
    updated_at      = $6
RETURNING ` + userProgressColumns

// Условное обновление: строка должна существовать и иметь ожидаемую версию.
const updateUserProgressQuery = `
UPDATE user_progress SET
    current_node_id = COALESCE($2::uuid, current_node_id),
    path_history    = COALESCE($3::text[], path_history),
    selected_genre  = COALESCE($4::text, selected_genre),
    story_title     = COALESCE(NULLIF($5::text, ''), story_title),
    version         = version + 1,
    updated_at      = $6
WHERE user_id = $1 AND ($7::bigint IS NULL OR version = $7)
RETURNING ` + userProgressColumns

const deleteUserProgressQuery = `DELETE FROM user_progress WHERE user_id = $1`

type pgUserProgressRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgUserProgressRepository creates a Postgres backed progress repository.
func NewPgUserProgressRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.UserProgressRepository {
	return &pgUserProgressRepository{
		db:     db,
		logger: logger.Named("PgUserProgressRepo"),
	}
}

func (r *pgUserProgressRepository) Get(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error) {
	logFields := []zap.Field{zap.Stringer("userID", userID)}

	progress, err := scanUserProgress(r.db.QueryRow(ctx, getUserProgressQuery, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User progress not found", logFields...)
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get user progress", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("%w: get user progress: %v", models.ErrPersistence, err)
	}
	r.logger.Debug("Retrieved user progress", append(logFields, zap.Int64("version", progress.Version))...)
	return progress, nil
}

func (r *pgUserProgressRepository) Upsert(ctx context.Context, userID uuid.UUID, update models.ProgressUpdate) (*models.UserProgress, error) {
	logFields := []zap.Field{zap.Stringer("userID", userID)}
	if update.CurrentNodeID != nil {
		logFields = append(logFields, zap.Stringer("currentNodeID", *update.CurrentNodeID))
	}

	var path any
	if update.PathHistory != nil {
		path = uuidsToStringArray(update.PathHistory)
	}
	now := time.Now().UTC()

	// Без ожидаемой версии и с указателем узла возможна вставка новой записи.
	if update.ExpectedVersion == nil && update.CurrentNodeID != nil {
		progress, err := scanUserProgress(r.db.QueryRow(ctx, upsertUserProgressQuery,
			userID, *update.CurrentNodeID, path, update.SelectedGenre, update.StoryTitle, now,
		))
		if err != nil {
			r.logger.Error("Failed to upsert user progress", append(logFields, zap.Error(err))...)
			return nil, fmt.Errorf("%w: upsert user progress: %v", models.ErrPersistence, err)
		}
		r.logger.Debug("User progress upserted", append(logFields, zap.Int64("version", progress.Version))...)
		return progress, nil
	}

	progress, err := scanUserProgress(r.db.QueryRow(ctx, updateUserProgressQuery,
		userID, update.CurrentNodeID, path, update.SelectedGenre, update.StoryTitle, now, update.ExpectedVersion,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if update.ExpectedVersion != nil {
				r.logger.Warn("User progress version mismatch", append(logFields, zap.Int64("expectedVersion", *update.ExpectedVersion))...)
				return nil, fmt.Errorf("%w: %w", models.ErrPersistence, models.ErrProgressConflict)
			}
			r.logger.Warn("No user progress to update", logFields...)
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to update user progress", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("%w: update user progress: %v", models.ErrPersistence, err)
	}
	r.logger.Debug("User progress updated", append(logFields, zap.Int64("version", progress.Version))...)
	return progress, nil
}

func (r *pgUserProgressRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	logFields := []zap.Field{zap.Stringer("userID", userID)}

	tag, err := r.db.Exec(ctx, deleteUserProgressQuery, userID)
	if err != nil {
		r.logger.Error("Failed to delete user progress", append(logFields, zap.Error(err))...)
		return fmt.Errorf("%w: delete user progress: %v", models.ErrPersistence, err)
	}
	r.logger.Info("User progress deleted", append(logFields, zap.Int64("rowsAffected", tag.RowsAffected()))...)
	return nil
}

// scanUserProgress читает строку user_progress; path_history хранится как text[].
func scanUserProgress(row pgx.Row) (*models.UserProgress, error) {
	progress := &models.UserProgress{}
	var path []string

	err := row.Scan(
		&progress.UserID,
		&progress.CurrentNodeID,
		&path,
		&progress.SelectedGenre,
		&progress.StoryTitle,
		&progress.Version,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	progress.PathHistory = make([]uuid.UUID, 0, len(path))
	for _, raw := range path {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid node id %q in path_history: %w", raw, err)
		}
		progress.PathHistory = append(progress.PathHistory, id)
	}
	return progress, nil
}

// uuidsToStringArray готовит path_history к записи через driver.Valuer.
func uuidsToStringArray(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
