package memory

import (
	"context"

	"github.com/xiebiao/obar/internal/domain/purchase"
)

type purchaseRepository struct {
	store *Store
}

// NewPurchaseRepository 创建购买记录仓储
func NewPurchaseRepository(store *Store) purchase.Repository {
	return &purchaseRepository{store: store}
}

func (r *purchaseRepository) Create(ctx context.Context, p *purchase.Purchase) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.purchases[p.Code]; ok {
			return purchase.ErrCodeDuplicate
		}
		p.ID = st.id()
		stored := *p
		stored.Items = append([]purchase.Item(nil), p.Items...)
		st.purchases[p.Code] = stored
		return nil
	})
}

func (r *purchaseRepository) FindByCode(ctx context.Context, code string) (*purchase.Purchase, error) {
	var found purchase.Purchase
	err := r.store.read(ctx, func(st *state) error {
		p, ok := st.purchases[code]
		if !ok {
			return purchase.ErrPurchaseNotFound
		}
		found = p
		found.Items = append([]purchase.Item(nil), p.Items...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *purchaseRepository) LockByCode(ctx context.Context, code string) (*purchase.Purchase, error) {
	return r.FindByCode(ctx, code)
}

func (r *purchaseRepository) UpdateGifted(ctx context.Context, code string, gifted bool) error {
	return r.store.write(ctx, func(st *state) error {
		p, ok := st.purchases[code]
		if !ok {
			return purchase.ErrPurchaseNotFound
		}
		p.Gifted = gifted
		st.purchases[code] = p
		return nil
	})
}
