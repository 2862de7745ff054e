package answer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/drive-assist/internal/cache"
)

// Cached wraps an answerer with a read-through cache. Cache failures are
// logged and otherwise ignored; only non-blank answers are stored.
type Cached struct {
	next       Answerer
	client     cache.Client
	ttl        time.Duration
	perVehicle bool
	logger     *zap.Logger
}

// VehicleScoped is implemented by answerers that can report whether their
// answer depends on Question.VehicleModel. Answerers without it are
// assumed to depend on it.
type VehicleScoped interface {
	UsesVehicleModel() bool
}

func NewCached(next Answerer, client cache.Client, ttl time.Duration, logger *zap.Logger) *Cached {
	perVehicle := true
	if v, ok := next.(VehicleScoped); ok {
		perVehicle = v.UsesVehicleModel()
	}
	return &Cached{
		next:       next,
		client:     client,
		ttl:        ttl,
		perVehicle: perVehicle,
		logger:     logger,
	}
}

func (c *Cached) Name() string { return c.next.Name() }

func (c *Cached) Answer(ctx context.Context, q Question) (string, error) {
	key := c.key(q)

	if val, err := c.client.Get(ctx, key); err == nil {
		return string(val), nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn("Answer cache read failed",
			zap.Error(err),
			zap.String("source", c.next.Name()))
	}

	text, err := c.next.Answer(ctx, q)
	if err != nil || text == "" {
		return text, err
	}

	if err := c.client.Set(ctx, key, []byte(text), c.ttl); err != nil {
		c.logger.Warn("Answer cache write failed",
			zap.Error(err),
			zap.String("source", c.next.Name()))
	}
	return text, nil
}

func (c *Cached) key(q Question) string {
	scope := ""
	if c.perVehicle {
		scope = q.VehicleModel
	}
	sum := sha256.Sum256([]byte(scope + "\x00" + q.Text))
	return "answer:" + c.next.Name() + ":" + hex.EncodeToString(sum[:])
}
