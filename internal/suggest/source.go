package suggest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Source supplies the series metadata candidates are built from. An empty
// metric means "across all series".
type Source interface {
	MetricNames(ctx context.Context) ([]string, error)
	LabelNames(ctx context.Context, metric string) ([]string, error)
	LabelValues(ctx context.Context, metric, label string) ([]string, error)
}

// StaticSource serves metadata from memory: metric -> label -> values.
type StaticSource map[string]map[string][]string

func (s StaticSource) MetricNames(ctx context.Context) ([]string, error) {
	names := lo.Keys(s)
	sort.Strings(names)
	return names, nil
}

func (s StaticSource) LabelNames(ctx context.Context, metric string) ([]string, error) {
	var names []string
	for name, labels := range s {
		if metric != "" && name != metric {
			continue
		}
		names = append(names, lo.Keys(labels)...)
	}
	names = lo.Uniq(names)
	sort.Strings(names)
	return names, nil
}

func (s StaticSource) LabelValues(ctx context.Context, metric, label string) ([]string, error) {
	var values []string
	for name, labels := range s {
		if metric != "" && name != metric {
			continue
		}
		values = append(values, labels[label]...)
	}
	values = lo.Uniq(values)
	sort.Strings(values)
	return values, nil
}

type cacheEntry struct {
	values    []string
	fetchedAt time.Time
}

// CachedSource memoizes another Source for ttl. Failed lookups are not
// cached. It is safe for concurrent use.
type CachedSource struct {
	source Source
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewCachedSource(source Source, ttl time.Duration, logger *zap.Logger) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{
		source:  source,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *CachedSource) MetricNames(ctx context.Context) ([]string, error) {
	return c.lookup("metrics", func() ([]string, error) {
		return c.source.MetricNames(ctx)
	})
}

func (c *CachedSource) LabelNames(ctx context.Context, metric string) ([]string, error) {
	return c.lookup("labels\x00"+metric, func() ([]string, error) {
		return c.source.LabelNames(ctx, metric)
	})
}

func (c *CachedSource) LabelValues(ctx context.Context, metric, label string) ([]string, error) {
	return c.lookup("values\x00"+metric+"\x00"+label, func() ([]string, error) {
		return c.source.LabelValues(ctx, metric, label)
	})
}

// Invalidate drops every cached entry.
func (c *CachedSource) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

func (c *CachedSource) lookup(key string, fetch func() ([]string, error)) ([]string, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.values, nil
	}

	values, err := fetch()
	if err != nil {
		return nil, err
	}

	c.logger.Debug("suggest cached metadata", zap.String("key", key), zap.Int("count", len(values)))

	c.mu.Lock()
	c.entries[key] = cacheEntry{values: values, fetchedAt: c.now()}
	c.mu.Unlock()
	return values, nil
}
