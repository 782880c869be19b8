package memory

import (
	"context"

	"github.com/xiebiao/obar/internal/domain/customer"
)

type customerRepository struct {
	store *Store
}

// NewCustomerRepository 创建顾客仓储
func NewCustomerRepository(store *Store) customer.Repository {
	return &customerRepository{store: store}
}

func (r *customerRepository) Create(ctx context.Context, c *customer.Customer) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.customers[c.MailAddress]; ok {
			return customer.ErrMailAddressDuplicate
		}
		c.ID = st.id()
		st.customers[c.MailAddress] = *c
		return nil
	})
}

func (r *customerRepository) FindByMailAddress(ctx context.Context, mail string) (*customer.Customer, error) {
	var found customer.Customer
	err := r.store.read(ctx, func(st *state) error {
		c, ok := st.customers[mail]
		if !ok {
			return customer.ErrCustomerNotFound
		}
		found = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}
