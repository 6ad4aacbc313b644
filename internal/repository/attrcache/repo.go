package attrcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sitesearch/internal/db"
	domattr "github.com/kailas-cloud/sitesearch/internal/domain/attribute"
)

const cacheKeyPrefix = "attr:name:"

// Repository is the wrapped attribute repository.
type Repository interface {
	ByNames(ctx context.Context, names []string) ([]domattr.Attribute, error)
	ForTemplates(ctx context.Context, templates []int64) ([]domattr.Attribute, error)
	Values(ctx context.Context, contentIDs, attrIDs []int64) (map[int64]map[int64]string, error)
}

// store is the consumer interface for the attribute cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedRepo caches attribute definitions looked up by name.
type CachedRepo struct {
	inner      Repository
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Repository,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedRepo {
	return &CachedRepo{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// ByNames serves cached definitions and loads the rest from the inner
// repository in a single call. Order follows names; unknown names are skipped.
func (c *CachedRepo) ByNames(ctx context.Context, names []string) ([]domattr.Attribute, error) {
	found := make(map[string]domattr.Attribute, len(names))
	var missing []string
	for _, n := range names {
		if a, ok := c.getFromCache(ctx, n); ok {
			c.incCache("hit")
			found[n] = a
			continue
		}
		c.incCache("miss")
		missing = append(missing, n)
	}

	if len(missing) > 0 {
		loaded, err := c.inner.ByNames(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("load attributes: %w", err)
		}
		for _, a := range loaded {
			found[a.Name()] = a
			c.putToCache(ctx, a)
		}
	}

	out := make([]domattr.Attribute, 0, len(found))
	for _, n := range names {
		if a, ok := found[n]; ok {
			out = append(out, a)
			delete(found, n)
		}
	}
	return out, nil
}

// ForTemplates delegates to the inner repository.
func (c *CachedRepo) ForTemplates(ctx context.Context, templates []int64) ([]domattr.Attribute, error) {
	return c.inner.ForTemplates(ctx, templates) //nolint:wrapcheck // transparent decorator
}

// Values delegates to the inner repository.
func (c *CachedRepo) Values(ctx context.Context, contentIDs, attrIDs []int64) (map[int64]map[int64]string, error) {
	return c.inner.Values(ctx, contentIDs, attrIDs) //nolint:wrapcheck // transparent decorator
}

func (c *CachedRepo) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedRepo) getFromCache(ctx context.Context, name string) (domattr.Attribute, bool) {
	key := cacheKeyPrefix + name
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached attribute", zap.String("key", key), zap.Error(err))
		}
		return domattr.Attribute{}, false
	}
	if len(data) == 0 {
		return domattr.Attribute{}, false
	}

	a, err := unmarshalAttribute(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached attribute", zap.String("key", key), zap.Error(err))
		return domattr.Attribute{}, false
	}
	return a, true
}

func (c *CachedRepo) putToCache(ctx context.Context, a domattr.Attribute) {
	key := cacheKeyPrefix + a.Name()
	data, err := marshalAttribute(a)
	if err != nil {
		c.logger.Warn("Failed to encode attribute", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache attribute", zap.String("key", key), zap.Error(err))
	}
}

// attributeDTO is the cached JSON form of an attribute.
type attributeDTO struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Default   string  `json:"default"`
	Templates []int64 `json:"templates"`
}

func marshalAttribute(a domattr.Attribute) ([]byte, error) {
	data, err := json.Marshal(attributeDTO{
		ID:        a.ID(),
		Name:      a.Name(),
		Type:      a.Type(),
		Default:   a.Default(),
		Templates: a.Templates(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal attribute: %w", err)
	}
	return data, nil
}

func unmarshalAttribute(data []byte) (domattr.Attribute, error) {
	var dto attributeDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domattr.Attribute{}, fmt.Errorf("unmarshal attribute: %w", err)
	}
	a, err := domattr.New(dto.ID, dto.Name, dto.Type, dto.Default, dto.Templates)
	if err != nil {
		return domattr.Attribute{}, fmt.Errorf("invalid cached attribute: %w", err)
	}
	return a, nil
}
