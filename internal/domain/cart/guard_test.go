package cart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampIncrement(t *testing.T) {
	for maxStock := 0; maxStock <= 8; maxStock++ {
		for current := 0; current <= 10; current++ {
			assert.LessOrEqual(t, ClampIncrement(current, maxStock), maxStock)
		}
	}

	t.Run("reaches stock and stops", func(t *testing.T) {
		minQuantity, maxStock := 2, 7
		q := minQuantity
		for i := 0; i < 20; i++ {
			q = ClampIncrement(q, maxStock)
		}
		assert.Equal(t, maxStock, q)
	})
}

func TestClampDecrement(t *testing.T) {
	for minQuantity := 1; minQuantity <= 6; minQuantity++ {
		for current := 0; current <= 10; current++ {
			assert.GreaterOrEqual(t, ClampDecrement(current, minQuantity), minQuantity)
		}
	}
	assert.Equal(t, 3, ClampDecrement(4, 1))
}

func TestValidateAddToCart(t *testing.T) {
	cases := []struct {
		name      string
		requested int
		min       int
		stock     int
		want      error
	}{
		{name: "ok", requested: 3, min: 1, stock: 5},
		{name: "exactly stock", requested: 5, min: 1, stock: 5},
		{name: "below minimum", requested: 2, min: 3, stock: 10, want: ErrBelowMinimum},
		{name: "insufficient stock", requested: 1, min: 1, stock: 0, want: ErrInsufficientStock},
		{name: "minimum checked first", requested: 0, min: 1, stock: 0, want: ErrBelowMinimum},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAddToCart(tc.requested, tc.min, tc.stock)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.NotEmpty(t, verr.UserMessage())
		})
	}
}

func TestIsBulkOrderOnly(t *testing.T) {
	assert.True(t, IsBulkOrderOnly(6))
	assert.False(t, IsBulkOrderOnly(5))
	assert.False(t, IsBulkOrderOnly(1))
}
