package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPurchasable(t *testing.T) {
	cases := []struct {
		name      string
		product   *Product
		requested int
		want      error
	}{
		{"正常", NewProduct("A", "苹果", 100, 5, true), 5, nil},
		{"已下架优先", NewProduct("A", "苹果", 100, 0, false), 1, ErrProductUnavailable},
		{"已售罄", NewProduct("A", "苹果", 100, 0, true), 1, ErrOutOfStock},
		{"库存不足", NewProduct("A", "苹果", 100, 2, true), 3, ErrInsufficientStock},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.product.CheckPurchasable(tc.requested)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
