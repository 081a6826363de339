package filter

import (
	"testing"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return NewCatalog(5000,
		Group{ID: GroupCategory, Label: "Category", Options: []Option{
			{ID: "SKIN_CARE", Label: "Skin care"},
			{ID: "HAIR_CARE", Label: "Hair care"},
			{ID: "MAKEUP", Label: "Makeup"},
		}},
		Group{ID: GroupSubCategory, Label: "Sub category", Options: []Option{
			{ID: "SERUM", Label: "Serum"},
			{ID: "CLEANSER", Label: "Cleanser"},
		}},
		Group{ID: GroupTags, Label: "Tags", Options: []Option{
			{ID: "New", Label: "New"},
			{ID: "Bestseller", Label: "Bestseller"},
		}},
	)
}

func TestDecode(t *testing.T) {
	c := testCatalog()

	t.Run("groups split on commas", func(t *testing.T) {
		sel := Decode("?category=SKIN_CARE,MAKEUP&tags=New&page=3", c)

		assert.True(t, sel.Groups[GroupCategory].Has("SKIN_CARE"))
		assert.True(t, sel.Groups[GroupCategory].Has("MAKEUP"))
		assert.Len(t, sel.Groups[GroupCategory], 2)
		assert.True(t, sel.Groups[GroupTags].Has("New"))
		assert.Equal(t, 3, sel.Page)
	})

	t.Run("price defaults when absent or non numeric", func(t *testing.T) {
		sel := Decode("minPrice=abc", c)
		assert.Equal(t, PriceRange{Min: 0, Max: 5000}, sel.Price)
	})

	t.Run("decimal price truncated", func(t *testing.T) {
		sel := Decode("minPrice=10.75&maxPrice=200", c)
		assert.Equal(t, PriceRange{Min: 10, Max: 200}, sel.Price)
	})

	t.Run("page defaults to one", func(t *testing.T) {
		assert.Equal(t, 1, Decode("", c).Page)
		assert.Equal(t, 1, Decode("page=0", c).Page)
		assert.Equal(t, 1, Decode("page=x", c).Page)
	})

	t.Run("unknown keys ignored, unknown ids preserved", func(t *testing.T) {
		sel := Decode("color=red&category=UNKNOWN", c)
		_, hasColor := sel.Groups["color"]
		assert.False(t, hasColor)
		assert.True(t, sel.Groups[GroupCategory].Has("UNKNOWN"))
	})

	t.Run("empty fragments dropped", func(t *testing.T) {
		sel := Decode("category=,SKIN_CARE,&tags=", c)
		assert.Len(t, sel.Groups[GroupCategory], 1)
		_, hasTags := sel.Groups[GroupTags]
		assert.False(t, hasTags)
	})

	t.Run("escaped commas accepted", func(t *testing.T) {
		sel := Decode("category=SKIN_CARE%2CMAKEUP", c)
		assert.Len(t, sel.Groups[GroupCategory], 2)
	})
}

func TestEncode(t *testing.T) {
	c := testCatalog()

	t.Run("default selection only carries page", func(t *testing.T) {
		q := Encode(NewSelection(c), c)
		assert.Equal(t, "page=1", q.Encode())
	})

	t.Run("catalog order and price keys only when changed", func(t *testing.T) {
		sel := NewSelection(c).
			WithOption(GroupTags, "New", true).
			WithOption(GroupCategory, "MAKEUP", true).
			WithOption(GroupCategory, "SKIN_CARE", true).
			WithPrice(0, 300)

		q := Encode(sel, c)
		assert.Equal(t, "category=SKIN_CARE,MAKEUP&tags=New&maxPrice=300&page=1", q.Encode())
		assert.False(t, q.Has(KeyMinPrice))
	})

	t.Run("unknown ids after known ones", func(t *testing.T) {
		sel := NewSelection(c).
			WithOption(GroupCategory, "ZZZ", true).
			WithOption(GroupCategory, "AAA", true).
			WithOption(GroupCategory, "HAIR_CARE", true)
		v, ok := Encode(sel, c).Get(GroupCategory)
		require.True(t, ok)
		assert.Equal(t, "HAIR_CARE,AAA,ZZZ", v)
	})

	t.Run("values escaped individually", func(t *testing.T) {
		sel := NewSelection(c).WithSearch("face & body")
		assert.Equal(t, "search=face+%26+body&page=1", Encode(sel, c).Encode())
	})
}

func TestRoundTrip(t *testing.T) {
	c := testCatalog()

	cases := []Selection{
		NewSelection(c),
		NewSelection(c).WithOption(GroupCategory, "SKIN_CARE", true),
		NewSelection(c).
			WithOption(GroupCategory, "SKIN_CARE", true).
			WithOption(GroupCategory, "HAIR_CARE", true).
			WithOption(GroupSubCategory, "SERUM", true).
			WithOption(GroupTags, "Bestseller", true).
			WithPrice(100, 2500).
			WithPage(7),
		NewSelection(c).WithPrice(0, 5000).WithPage(2),
		NewSelection(c).WithSearch("vitamin c").WithPage(4),
	}

	for _, sel := range cases {
		q := Encode(sel, c)
		t.Run(q.Encode(), func(t *testing.T) {
			got := Decode(q.Encode(), c)
			assert.True(t, sel.Equal(got), "selection changed after round trip: %+v vs %+v", sel, got)
		})
	}
}

func TestListQueryMerge(t *testing.T) {
	q := ListQuery{
		{Key: GroupTags, Values: []string{"New"}},
		{Key: KeyPage, Values: []string{"2"}},
	}

	merged := q.Merge(Param{Key: KeyOnSale, Values: []string{"true"}}, Param{Key: GroupTags, Values: []string{"Other"}})

	assert.Equal(t, "tags=New&onSale=true&page=2", merged.Encode())
}

func TestCatalogFromRecords(t *testing.T) {
	records := []models.FilterOptionRecord{
		{GroupID: GroupTags, GroupLabel: "Tags", OptionID: "New", Label: "New in", Position: 2},
		{GroupID: GroupCategory, GroupLabel: "Category", OptionID: "SKIN_CARE", Label: "Skin care", Position: 1},
		{GroupID: "brand", GroupLabel: "Brand", OptionID: "acme", Label: "Acme", Position: 3},
	}

	c := CatalogFromRecords(records, 9000)

	require.Len(t, c.Groups, 4)
	assert.Equal(t, GroupCategory, c.Groups[0].ID)
	assert.Equal(t, "brand", c.Groups[3].ID)
	label, ok := c.OptionLabel(GroupTags, "New")
	assert.True(t, ok)
	assert.Equal(t, "New in", label)
	assert.Equal(t, 9000, c.PriceCeiling)
}
