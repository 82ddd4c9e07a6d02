package recursos

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sgtes/maismedicos-go/internal/domain"
	"github.com/sgtes/maismedicos-go/internal/platform/cache"
)

// FetchConcurrency bounds the per-municipality establishment fetches.
const FetchConcurrency = 6

// Cached serves reference data through a cache. Course balances are never
// cached.
type Cached struct {
	*Client
	Cache  cache.Cache
	TTL    time.Duration
	Logger *slog.Logger
}

func NewCached(client *Client, c cache.Cache, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{Client: client, Cache: c, TTL: ttl, Logger: logger}
}

func (c *Cached) Estados(ctx context.Context) ([]Estado, error) {
	return cachedFetch(ctx, c, "estados", func(ctx context.Context) ([]Estado, error) {
		return c.Client.Estados(ctx)
	})
}

func (c *Cached) Municipios(ctx context.Context, uf, status string) ([]Municipio, error) {
	key := fmt.Sprintf("municipios:%s:%s", strings.ToUpper(strings.TrimSpace(uf)), status)
	return cachedFetch(ctx, c, key, func(ctx context.Context) ([]Municipio, error) {
		return c.Client.Municipios(ctx, uf, status)
	})
}

func (c *Cached) Estabelecimentos(ctx context.Context, q EstabelecimentosQuery) ([]domain.Estabelecimento, error) {
	key := "estabelecimentos:" + q.values().Encode()
	return cachedFetch(ctx, c, key, func(ctx context.Context) ([]domain.Estabelecimento, error) {
		return c.Client.Estabelecimentos(ctx, q)
	})
}

func (c *Cached) TodosCursos(ctx context.Context) ([]CursoCatalogo, error) {
	return cachedFetch(ctx, c, "todos-cursos", func(ctx context.Context) ([]CursoCatalogo, error) {
		return c.Client.TodosCursos(ctx)
	})
}

// EstabelecimentosPorMunicipio fetches the establishments of every
// municipality with at most FetchConcurrency requests in flight. A failed
// municipality maps to an empty list.
func (c *Cached) EstabelecimentosPorMunicipio(ctx context.Context, ids []int64) map[int64][]domain.Estabelecimento {
	out := make(map[int64][]domain.Estabelecimento, len(ids))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(FetchConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			list, err := c.Estabelecimentos(ctx, EstabelecimentosQuery{MunicipioID: id})
			if err != nil {
				c.Logger.Warn("estabelecimentos fetch failed", "municipio_id", id, "error", err)
				list = []domain.Estabelecimento{}
			}
			mu.Lock()
			out[id] = list
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func cachedFetch[T any](ctx context.Context, c *Cached, key string, fetch func(context.Context) (T, error)) (T, error) {
	if c.Cache != nil {
		var hit T
		ok, err := cache.GetJSON(ctx, c.Cache, key, &hit)
		if err != nil {
			c.Logger.Warn("cache get failed", "key", key, "error", err)
		}
		if ok {
			return hit, nil
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	if c.Cache != nil && c.TTL > 0 {
		if err := cache.SetJSON(ctx, c.Cache, key, v, c.TTL); err != nil {
			c.Logger.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return v, nil
}
