package shop

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/adapters/logger"
	"github.com/athebyme/gomarket-storefront/internal/domain/filter"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testCatalog() *filter.Catalog {
	return filter.NewCatalog(5000,
		filter.Group{ID: filter.GroupCategory, Label: "Category", Options: []filter.Option{
			{ID: "SKIN_CARE", Label: "Skin care"},
			{ID: "HAIR_CARE", Label: "Hair care"},
		}},
		filter.Group{ID: filter.GroupSubCategory, Label: "Sub category", Options: []filter.Option{
			{ID: "SERUM", Label: "Serum"},
		}},
		filter.Group{ID: filter.GroupTags, Label: "Tags", Options: []filter.Option{
			{ID: "New", Label: "New"},
			{ID: "Bestseller", Label: "Bestseller"},
		}},
	)
}

func newController(t *testing.T, rawQuery string) (*Controller, *MemoryLocation) {
	t.Helper()
	loc := NewMemoryLocation("/shop", rawQuery)
	c := NewController(testCatalog(), loc, loc, logger.NewNop(), 10*time.Millisecond)
	t.Cleanup(c.Close)
	return c, loc
}

func queryOf(t *testing.T, target string) url.Values {
	t.Helper()
	u, err := url.Parse(target)
	require.NoError(t, err)
	return u.Query()
}

func TestToggleFilterOption(t *testing.T) {
	t.Run("adds option and resets page", func(t *testing.T) {
		c, loc := newController(t, "?category=SKIN_CARE&page=3")

		target, err := c.ToggleFilterOption(filter.GroupTags, "New", true)
		require.NoError(t, err)

		q := queryOf(t, target)
		assert.Equal(t, "SKIN_CARE", q.Get(filter.GroupCategory))
		assert.Equal(t, "New", q.Get(filter.GroupTags))
		assert.Equal(t, "1", q.Get(filter.KeyPage))
		assert.Equal(t, target, loc.URL())
	})

	t.Run("unchecking last option drops the key", func(t *testing.T) {
		c, _ := newController(t, "category=SKIN_CARE&page=2")

		target, err := c.ToggleFilterOption(filter.GroupCategory, "SKIN_CARE", false)
		require.NoError(t, err)
		assert.Equal(t, "/shop?page=1", target)
	})

	t.Run("unknown group rejected without navigation", func(t *testing.T) {
		c, loc := newController(t, "page=2")

		_, err := c.ToggleFilterOption("color", "red", true)
		assert.ErrorIs(t, err, ErrUnknownGroup)
		assert.Empty(t, loc.History())
	})
}

func TestPageResetLaw(t *testing.T) {
	queries := []string{
		"category=SKIN_CARE&page=3",
		"tags=New,Bestseller&minPrice=100&page=7",
		"sub_category=SERUM&maxPrice=900&page=2",
	}

	for _, raw := range queries {
		t.Run(raw, func(t *testing.T) {
			c, _ := newController(t, raw)
			target, err := c.ToggleFilterOption(filter.GroupCategory, "HAIR_CARE", true)
			require.NoError(t, err)
			assert.Equal(t, "1", queryOf(t, target).Get(filter.KeyPage))

			c, _ = newController(t, raw)
			target, err = c.ApplyPriceRange(10, 2000)
			require.NoError(t, err)
			assert.Equal(t, "1", queryOf(t, target).Get(filter.KeyPage))

			c, _ = newController(t, raw)
			target, err = c.ChangePage(5)
			require.NoError(t, err)
			want := replaceParam(raw, filter.KeyPage, "5")
			assert.Equal(t, "/shop?"+want, target)

			expected := queryOf(t, "/shop?"+raw)
			expected.Set(filter.KeyPage, "5")
			assert.Equal(t, expected, queryOf(t, target))
		})
	}
}

func TestChangePageKeepsRawQuery(t *testing.T) {
	c, _ := newController(t, "tags=New&search=face+%26+body&page=2&utm=x")

	target, err := c.ChangePage(3)
	require.NoError(t, err)
	assert.Equal(t, "/shop?tags=New&search=face+%26+body&page=3&utm=x", target)

	_, err = c.ChangePage(0)
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestClearAll(t *testing.T) {
	c, loc := newController(t, "category=SKIN_CARE,HAIR_CARE&tags=New&minPrice=5&page=4")

	target, err := c.ClearAll()
	require.NoError(t, err)
	assert.Equal(t, "/shop", target)
	assert.Empty(t, loc.RawQuery())
}

func TestApplyPriceRange(t *testing.T) {
	t.Run("bounds clamped to catalog", func(t *testing.T) {
		c, _ := newController(t, "")
		target, err := c.ApplyPriceRange(-10, 9000)
		require.NoError(t, err)
		assert.Equal(t, "/shop?page=1", target)
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		c, _ := newController(t, "")
		_, err := c.ApplyPriceRange(300, 100)
		assert.ErrorIs(t, err, ErrInvalidPriceRange)
	})
}

func TestSetPriceRangeDebounced(t *testing.T) {
	c, loc := newController(t, "tags=New&page=4")

	c.SetPriceRange(0, 100)
	c.SetPriceRange(0, 200)
	c.SetPriceRange(50, 300)

	assert.Eventually(t, func() bool { return len(loc.History()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "/shop?tags=New&minPrice=50&maxPrice=300&page=1", loc.URL())
}

func TestSetPriceRangeFlush(t *testing.T) {
	loc := NewMemoryLocation("/shop", "page=2")
	c := NewController(testCatalog(), loc, loc, logger.NewNop(), time.Hour)
	defer c.Close()

	c.SetPriceRange(0, 100)
	assert.Empty(t, loc.History())
	assert.True(t, c.FlushPriceRange())
	assert.Equal(t, "/shop?maxPrice=100&page=1", loc.URL())
}

func TestAppliedFilters(t *testing.T) {
	c, _ := newController(t, "tags=Bestseller&category=HAIR_CARE,UNKNOWN,SKIN_CARE")

	chips := c.AppliedFilters()
	require.Len(t, chips, 3)
	assert.Equal(t, Chip{GroupID: filter.GroupCategory, GroupLabel: "Category", OptionID: "SKIN_CARE", Label: "Skin care"}, chips[0])
	assert.Equal(t, "HAIR_CARE", chips[1].OptionID)
	assert.Equal(t, "Bestseller", chips[2].OptionID)

	target, err := c.RemoveChip(chips[1])
	require.NoError(t, err)
	assert.Equal(t, "SKIN_CARE,UNKNOWN", queryOf(t, target).Get(filter.GroupCategory))
}

type failingNavigator struct{}

func (failingNavigator) Navigate(string) error { return errors.New("closed") }

func TestNavigatorError(t *testing.T) {
	c := NewController(testCatalog(), NewMemoryLocation("/shop", ""), failingNavigator{}, logger.NewNop(), 0)
	defer c.Close()

	_, err := c.ClearAll()
	assert.Error(t, err)
}

func TestSearcher(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	var terms []string
	suggest := func(_ context.Context, term string) ([]models.SearchSuggestion, error) {
		mu.Lock()
		terms = append(terms, term)
		mu.Unlock()
		return []models.SearchSuggestion{{Slug: term + "-1", Name: term}}, nil
	}

	t.Run("only settled input reaches catalog", func(t *testing.T) {
		terms = nil
		s := NewSearcher(ctx, suggest, logger.NewNop(), 10*time.Millisecond)
		defer s.Close()

		done := make(chan string, 1)
		s.OnResults(func(term string, _ []models.SearchSuggestion) { done <- term })

		s.Type("se")
		s.Type("ser")
		s.Type("seru")

		select {
		case term := <-done:
			assert.Equal(t, "seru", term)
		case <-time.After(time.Second):
			t.Fatal("no results delivered")
		}
		mu.Lock()
		assert.Equal(t, []string{"seru"}, terms)
		mu.Unlock()
		assert.Len(t, s.Results(), 1)
	})

	t.Run("short input clears results without request", func(t *testing.T) {
		terms = nil
		s := NewSearcher(ctx, suggest, logger.NewNop(), time.Hour)
		defer s.Close()

		s.Type("serum")
		require.True(t, s.Flush())
		require.Len(t, s.Results(), 1)

		s.Type("s")
		assert.Empty(t, s.Results())
		mu.Lock()
		assert.Equal(t, []string{"serum"}, terms)
		mu.Unlock()
	})
}

func TestLookupContext(t *testing.T) {
	sale, ok := LookupContext(ContextSale)
	require.True(t, ok)
	assert.Equal(t, []filter.Param{{Key: filter.KeyOnSale, Values: []string{"true"}}}, sale.Base)

	_, ok = LookupContext("outlet")
	assert.False(t, ok)
	assert.Len(t, ListingContexts(), 4)
}
