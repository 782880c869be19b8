package memory

import (
	"context"
	"time"

	"github.com/xiebiao/obar/internal/domain/product"
)

type productRepository struct {
	store *Store
}

// NewProductRepository 创建商品仓储
func NewProductRepository(store *Store) product.Repository {
	return &productRepository{store: store}
}

func (r *productRepository) Create(ctx context.Context, p *product.Product) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.products[p.Code]; ok {
			return product.ErrCodeDuplicate
		}
		p.ID = st.id()
		st.products[p.Code] = *p
		return nil
	})
}

func (r *productRepository) FindByCode(ctx context.Context, code string) (*product.Product, error) {
	var found product.Product
	err := r.store.read(ctx, func(st *state) error {
		p, ok := st.products[code]
		if !ok {
			return product.ErrProductNotFound
		}
		found = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// LockByCodes 事务本身是串行的，这里只需要读
func (r *productRepository) LockByCodes(ctx context.Context, codes []string) (map[string]*product.Product, error) {
	result := make(map[string]*product.Product, len(codes))
	err := r.store.read(ctx, func(st *state) error {
		for _, code := range codes {
			if p, ok := st.products[code]; ok {
				p := p
				result[code] = &p
			}
		}
		return nil
	})
	return result, err
}

func (r *productRepository) DecrStock(ctx context.Context, code string, quantity int) error {
	if quantity <= 0 {
		return product.ErrInvalidQuantity
	}
	return r.store.write(ctx, func(st *state) error {
		p, ok := st.products[code]
		if !ok {
			return product.ErrProductNotFound
		}
		if p.Quantity < quantity {
			return product.ErrInsufficientStock
		}
		p.Quantity -= quantity
		p.UpdatedAt = time.Now()
		st.products[code] = p
		return nil
	})
}
