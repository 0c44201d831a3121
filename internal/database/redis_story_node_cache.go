package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"story-graph-server/internal/interfaces"
	"story-graph-server/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.StoryNodeRepository = (*redisStoryNodeCache)(nil)

const (
	nodeKeyPrefix = "story_node:"
	edgeKeyPrefix = "story_edge:"
)

// redisStoryNodeCache is a read-through cache in front of a StoryNodeRepository.
// Nodes never change after insert, so entries are only dropped by TTL.
type redisStoryNodeCache struct {
	next   interfaces.StoryNodeRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStoryNodeCache wraps next with a Redis cache. Redis errors are
// logged and the call falls through to next.
func NewRedisStoryNodeCache(next interfaces.StoryNodeRepository, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) interfaces.StoryNodeRepository {
	return &redisStoryNodeCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisStoryNodeCache"),
	}
}

func nodeKey(id uuid.UUID) string {
	return nodeKeyPrefix + id.String()
}

func edgeKey(parentID uuid.UUID, choiceLabel string) string {
	return fmt.Sprintf("%s%s:%s", edgeKeyPrefix, parentID, choiceLabel)
}

func (c *redisStoryNodeCache) FindNode(ctx context.Context, id uuid.UUID) (*models.StoryNode, error) {
	if node, ok := c.get(ctx, "find_node", nodeKey(id)); ok {
		return node, nil
	}
	node, err := c.next.FindNode(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, node)
	return node, nil
}

// Промахи FindChild не кэшируются: ребро может появиться в любой момент.
func (c *redisStoryNodeCache) FindChild(ctx context.Context, parentID uuid.UUID, choiceLabel string) (*models.StoryNode, error) {
	if node, ok := c.get(ctx, "find_child", edgeKey(parentID, choiceLabel)); ok {
		return node, nil
	}
	node, err := c.next.FindChild(ctx, parentID, choiceLabel)
	if err != nil {
		return nil, err
	}
	c.store(ctx, node)
	return node, nil
}

func (c *redisStoryNodeCache) FindNodesByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.StoryNode, error) {
	if len(ids) == 0 {
		return []*models.StoryNode{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = nodeKey(id)
	}

	nodes := make([]*models.StoryNode, 0, len(ids))
	missing := make([]uuid.UUID, 0)

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("Redis MGET failed, falling back to store", zap.Error(err))
		nodeCacheTotal.WithLabelValues("find_nodes", "error").Inc()
		return c.next.FindNodesByIDs(ctx, ids)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		node := &models.StoryNode{}
		if err := json.Unmarshal([]byte(raw), node); err != nil {
			missing = append(missing, ids[i])
			continue
		}
		nodes = append(nodes, node)
	}
	nodeCacheTotal.WithLabelValues("find_nodes", "hit").Add(float64(len(nodes)))
	nodeCacheTotal.WithLabelValues("find_nodes", "miss").Add(float64(len(missing)))

	if len(missing) == 0 {
		return nodes, nil
	}
	fetched, err := c.next.FindNodesByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, node := range fetched {
		c.store(ctx, node)
	}
	return append(nodes, fetched...), nil
}

func (c *redisStoryNodeCache) InsertNode(ctx context.Context, in models.NewStoryNode) (*models.StoryNode, error) {
	node, err := c.next.InsertNode(ctx, in)
	if node != nil && (err == nil || errors.Is(err, models.ErrEdgeExists)) {
		c.store(ctx, node)
	}
	return node, err
}

func (c *redisStoryNodeCache) get(ctx context.Context, op, key string) (*models.StoryNode, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			nodeCacheTotal.WithLabelValues(op, "miss").Inc()
		} else {
			c.logger.Warn("Redis GET failed", zap.String("key", key), zap.Error(err))
			nodeCacheTotal.WithLabelValues(op, "error").Inc()
		}
		return nil, false
	}

	node := &models.StoryNode{}
	if err := json.Unmarshal(raw, node); err != nil {
		c.logger.Warn("Corrupted cache entry", zap.String("key", key), zap.Error(err))
		nodeCacheTotal.WithLabelValues(op, "error").Inc()
		return nil, false
	}
	nodeCacheTotal.WithLabelValues(op, "hit").Inc()
	return node, true
}

// store кладет узел под ключом id и, для не-корней, под ключом ребра.
func (c *redisStoryNodeCache) store(ctx context.Context, node *models.StoryNode) {
	data, err := json.Marshal(node)
	if err != nil {
		c.logger.Warn("Failed to marshal node for cache", zap.Stringer("nodeID", node.ID), zap.Error(err))
		return
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, nodeKey(node.ID), data, c.ttl)
	if node.ParentNodeID != nil {
		pipe.Set(ctx, edgeKey(*node.ParentNodeID, node.ChoiceLabel), data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("Failed to write node to cache", zap.Stringer("nodeID", node.ID), zap.Error(err))
		nodeCacheTotal.WithLabelValues("store", "error").Inc()
		return
	}
	nodeCacheTotal.WithLabelValues("store", "ok").Inc()
}
