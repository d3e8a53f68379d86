package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchQuery(t *testing.T) {
	t.Run("tokens OR over make and model, other filters AND", func(t *testing.T) {
		query, args := buildSearchQuery(SearchFilter{
			Tokens:   []string{"camry", "accord"},
			Year:     2022,
			MaxPrice: 90000,
			Currency: "AED",
		}, OrderPriceAsc, 30)

		assert.Contains(t, query, "LOWER(make) LIKE $1 OR LOWER(model) LIKE $1")
		assert.Contains(t, query, "LOWER(make) LIKE $2 OR LOWER(model) LIKE $2")
		assert.Contains(t, query, "year = $3")
		assert.Contains(t, query, "price IS NOT NULL AND price <= $4")
		assert.Contains(t, query, "currency = $5")
		assert.Contains(t, query, "ORDER BY price ASC NULLS LAST")
		assert.Contains(t, query, "LIMIT $6")

		require.Len(t, args, 6)
		assert.Equal(t, "%camry%", args[0])
		assert.Equal(t, "%accord%", args[1])
		assert.Equal(t, 2022, args[2])
		assert.Equal(t, float64(90000), args[3])
		assert.Equal(t, "AED", args[4])
		assert.Equal(t, 30, args[5])
	})

	t.Run("empty filter has no WHERE clause", func(t *testing.T) {
		query, args := buildSearchQuery(SearchFilter{}, OrderYearRating, 10)
		assert.NotContains(t, query, "WHERE")
		assert.Contains(t, query, "ORDER BY year DESC, rating DESC")
		require.Len(t, args, 1)
		assert.Equal(t, 10, args[0])
	})

	t.Run("tokens are lower-cased in the pattern", func(t *testing.T) {
		_, args := buildSearchQuery(SearchFilter{Tokens: []string{"Camry"}}, OrderYearRating, 5)
		assert.Equal(t, "%camry%", args[0])
	})

	t.Run("order by intent mapping", func(t *testing.T) {
		q1, _ := buildSearchQuery(SearchFilter{}, OrderPriceAsc, 1)
		assert.Contains(t, q1, "price ASC")
		q2, _ := buildSearchQuery(SearchFilter{}, OrderRatingReviews, 1)
		assert.Contains(t, q2, "rating DESC, reviews DESC")
		q3, _ := buildSearchQuery(SearchFilter{}, OrderYearRating, 1)
		assert.Contains(t, q3, "year DESC, rating DESC")
	})
}

func TestSearchFilterIsZero(t *testing.T) {
	assert.True(t, SearchFilter{}.IsZero())
	assert.False(t, SearchFilter{Year: 2020}.IsZero())
	assert.False(t, SearchFilter{Tokens: []string{"bmw"}}.IsZero())
	assert.False(t, SearchFilter{MaxPrice: 1}.IsZero())
	assert.False(t, SearchFilter{Currency: "AED"}.IsZero())
}
