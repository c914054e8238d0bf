package enrich

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// CachedSource reads through an ordered list of cache layers before calling
// the upstream fetch. A hit in a lower layer is copied into the layers above
// it; a fetched value is written to every layer. Cache failures are logged
// and treated as misses.
type CachedSource[T any] struct {
	name   string
	layers []Cache
}

// NewCachedSource creates a source named for logging. Nil layers are
// skipped.
func NewCachedSource[T any](name string, layers ...Cache) *CachedSource[T] {
	s := &CachedSource[T]{name: name}
	for _, l := range layers {
		if l != nil {
			s.layers = append(s.layers, l)
		}
	}
	return s
}

// Get returns the value for key, calling fetch only when no layer holds it.
// Errors from fetch are returned as-is and nothing is cached.
func (s *CachedSource[T]) Get(ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	key = s.name + ":" + key
	for i, layer := range s.layers {
		data, ok, err := layer.Get(ctx, key)
		if err != nil {
			zap.L().Warn("enrich: cache read failed",
				zap.String("source", s.name), zap.String("key", key), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			zap.L().Warn("enrich: discarding undecodable cache entry",
				zap.String("source", s.name), zap.String("key", key), zap.Error(err))
			continue
		}
		s.write(ctx, key, data, s.layers[:i])
		return v, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		zap.L().Warn("enrich: encode cache entry", zap.String("source", s.name), zap.Error(err))
		return v, nil
	}
	s.write(ctx, key, data, s.layers)
	return v, nil
}

func (s *CachedSource[T]) write(ctx context.Context, key string, data []byte, layers []Cache) {
	for _, layer := range layers {
		if err := layer.Set(ctx, key, data); err != nil {
			zap.L().Warn("enrich: cache write failed",
				zap.String("source", s.name), zap.String("key", key), zap.Error(err))
		}
	}
}
