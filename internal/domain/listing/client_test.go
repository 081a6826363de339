package listing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/adapters/logger"
	"github.com/athebyme/gomarket-storefront/internal/domain/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type userErr struct{}

func (userErr) Error() string       { return "upstream: status 503" }
func (userErr) UserMessage() string { return "Catalog is unavailable" }

func pageOf(items ...string) Page[string] {
	return Page[string]{Items: items, CurrentPage: 1, TotalPages: 1, TotalCount: len(items)}
}

func TestReduce(t *testing.T) {
	t.Run("started sets loading and clears error", func(t *testing.T) {
		s := Result[string]{Error: "boom"}
		s = Reduce[string](s, Started[string]{Seq: 1})
		assert.True(t, s.Loading)
		assert.Empty(t, s.Error)
	})

	t.Run("failure keeps previous items", func(t *testing.T) {
		var s Result[string]
		s = Reduce[string](s, Started[string]{Seq: 1})
		s = Reduce[string](s, Succeeded[string]{Seq: 1, Page: pageOf("a", "b")})
		s = Reduce[string](s, Started[string]{Seq: 2})
		s = Reduce[string](s, Failed[string]{Seq: 2, Message: "down"})

		assert.Equal(t, []string{"a", "b"}, s.Items)
		assert.False(t, s.Loading)
		assert.Equal(t, "down", s.Error)
	})

	t.Run("older response after newer is dropped", func(t *testing.T) {
		var s Result[string]
		s = Reduce[string](s, Started[string]{Seq: 1})
		s = Reduce[string](s, Started[string]{Seq: 2})
		s = Reduce[string](s, Succeeded[string]{Seq: 2, Page: pageOf("new")})

		stale := Succeeded[string]{Seq: 1, Page: pageOf("old")}
		assert.True(t, s.Stale(stale))
		s = Reduce[string](s, stale)

		assert.Equal(t, []string{"new"}, s.Items)
		assert.False(t, s.Loading)
	})

	t.Run("older response first keeps loading until newest lands", func(t *testing.T) {
		var s Result[string]
		s = Reduce[string](s, Started[string]{Seq: 1})
		s = Reduce[string](s, Started[string]{Seq: 2})
		s = Reduce[string](s, Succeeded[string]{Seq: 1, Page: pageOf("old")})
		assert.True(t, s.Loading)

		s = Reduce[string](s, Succeeded[string]{Seq: 2, Page: pageOf("new")})
		assert.False(t, s.Loading)
		assert.Equal(t, []string{"new"}, s.Items)
	})
}

func TestClientFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("success replaces items and merges base params", func(t *testing.T) {
		var got filter.ListQuery
		c := NewClient[string]("sale", FetcherFunc[string](func(_ context.Context, q filter.ListQuery) (Page[string], error) {
			got = q
			return pageOf("x"), nil
		}), logger.NewNop(), filter.Param{Key: filter.KeyOnSale, Values: []string{"true"}})

		res, err := c.Fetch(ctx, filter.ListQuery{{Key: filter.KeyPage, Values: []string{"2"}}})
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, res.Items)
		assert.False(t, res.Loading)
		assert.Equal(t, "onSale=true&page=2", got.Encode())
	})

	t.Run("failure surfaces readable message and keeps items", func(t *testing.T) {
		fail := false
		c := NewClient[string]("shop", FetcherFunc[string](func(context.Context, filter.ListQuery) (Page[string], error) {
			if fail {
				return Page[string]{}, userErr{}
			}
			return pageOf("a"), nil
		}), logger.NewNop())

		_, err := c.Fetch(ctx, nil)
		require.NoError(t, err)

		fail = true
		res, err := c.Fetch(ctx, nil)
		require.Error(t, err)
		assert.Equal(t, "Catalog is unavailable", res.Error)
		assert.Equal(t, []string{"a"}, res.Items)
		assert.False(t, res.Loading)
	})

	t.Run("retry reissues last query", func(t *testing.T) {
		var calls []string
		c := NewClient[string]("shop", FetcherFunc[string](func(_ context.Context, q filter.ListQuery) (Page[string], error) {
			calls = append(calls, q.Encode())
			return pageOf(), nil
		}), logger.NewNop())

		_, err := c.Retry(ctx)
		assert.ErrorIs(t, err, ErrNoPreviousQuery)

		_, err = c.Fetch(ctx, filter.ListQuery{{Key: filter.KeyPage, Values: []string{"4"}}})
		require.NoError(t, err)
		_, err = c.Retry(ctx)
		require.NoError(t, err)

		assert.Equal(t, []string{"page=4", "page=4"}, calls)
	})

	t.Run("slow earlier response does not overwrite newer", func(t *testing.T) {
		release := make(chan struct{})
		c := NewClient[string]("shop", FetcherFunc[string](func(_ context.Context, q filter.ListQuery) (Page[string], error) {
			if v, _ := q.Get(filter.KeyPage); v == "1" {
				<-release
				return pageOf("stale"), nil
			}
			return pageOf("fresh"), nil
		}), logger.NewNop())

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Fetch(ctx, filter.ListQuery{{Key: filter.KeyPage, Values: []string{"1"}}})
		}()

		// дождаться, пока первый запрос будет отправлен
		require.Eventually(t, func() bool { return c.State().Loading }, timeout, tick)

		_, err := c.Fetch(ctx, filter.ListQuery{{Key: filter.KeyPage, Values: []string{"2"}}})
		require.NoError(t, err)

		close(release)
		wg.Wait()

		res := c.State()
		assert.Equal(t, []string{"fresh"}, res.Items)
		assert.False(t, res.Loading)
	})

	t.Run("listeners observe every transition", func(t *testing.T) {
		c := NewClient[string]("shop", FetcherFunc[string](func(context.Context, filter.ListQuery) (Page[string], error) {
			return Page[string]{}, errors.New("dial tcp: refused")
		}), logger.NewNop())

		var loading []bool
		c.OnChange(func(r Result[string]) { loading = append(loading, r.Loading) })

		res, err := c.Fetch(ctx, nil)
		require.Error(t, err)
		assert.Equal(t, []bool{true, false}, loading)
		assert.NotEmpty(t, res.Error)
		assert.NotNil(t, res.Items)
	})
}
