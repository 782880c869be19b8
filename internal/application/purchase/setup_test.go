package purchase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xiebiao/obar/internal/domain/customer"
	"github.com/xiebiao/obar/internal/domain/product"
	"github.com/xiebiao/obar/internal/domain/purchase"
	"github.com/xiebiao/obar/internal/infrastructure/persistence/memory"
)

const (
	alice = "alice@example.com"
	bob   = "bob@example.com"
)

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

type publishedEvent struct {
	routingKey string
	message    interface{}
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{routingKey: routingKey, message: message})
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, len(p.events))
	for i, e := range p.events {
		keys[i] = e.routingKey
	}
	return keys
}

// brokenCache 模拟Redis故障
type brokenCache struct{}

var errCacheDown = errors.New("cache down")

func (brokenCache) Get(context.Context, string) (*purchase.Status, bool, error) {
	return nil, false, errCacheDown
}
func (brokenCache) Set(context.Context, string, *purchase.Status) error { return errCacheDown }
func (brokenCache) Delete(context.Context, string) error               { return errCacheDown }

// recordingPurchases 记录写入的购买编号，可在写入后注入失败
type recordingPurchases struct {
	purchase.Repository
	mu        sync.Mutex
	codes     []string
	createErr error
}

func (r *recordingPurchases) Create(ctx context.Context, p *purchase.Purchase) error {
	if err := r.Repository.Create(ctx, p); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, p.Code)
	return r.createErr
}

func (r *recordingPurchases) created() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.codes...)
}

// fixture 基于内存存储的完整用例环境
type fixture struct {
	customers customer.Repository
	products  product.Repository
	purchases *recordingPurchases
	cache     *memory.StatusCache
	publisher *recordingPublisher

	submit *SubmitPurchaseUseCase
	gift   *GiftPurchaseUseCase
	undo   *UndoGiftUseCase
	check  *CheckPurchaseUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	tx := memory.NewTxManager(store)

	f := &fixture{
		customers: memory.NewCustomerRepository(store),
		products:  memory.NewProductRepository(store),
		purchases: &recordingPurchases{Repository: memory.NewPurchaseRepository(store)},
		cache:     memory.NewStatusCache(time.Minute),
		publisher: &recordingPublisher{},
	}
	f.submit = NewSubmitPurchaseUseCase(f.customers, f.products, f.purchases, tx, f.publisher)
	f.gift = NewGiftPurchaseUseCase(f.purchases, tx, f.cache, f.publisher)
	f.undo = NewUndoGiftUseCase(f.purchases, tx, f.cache, f.publisher)
	f.check = NewCheckPurchaseUseCase(f.purchases, f.customers, f.cache)

	ctx := context.Background()
	require.NoError(t, f.customers.Create(ctx, customer.NewCustomer(alice, "Alice", "Liddell")))
	require.NoError(t, f.customers.Create(ctx, customer.NewCustomer(bob, "Bob", "Builder")))
	return f
}

func (f *fixture) addProduct(t *testing.T, code string, quantity int, available bool) {
	t.Helper()
	require.NoError(t, f.products.Create(context.Background(), product.NewProduct(code, "商品"+code, 100, quantity, available)))
}

func (f *fixture) stock(t *testing.T, code string) int {
	t.Helper()
	p, err := f.products.FindByCode(context.Background(), code)
	require.NoError(t, err)
	return p.Quantity
}

// requireNoPurchase 写入过的购买记录在事务回滚后都不存在
func (f *fixture) requireNoPurchase(t *testing.T) {
	t.Helper()
	for _, code := range f.purchases.created() {
		_, err := f.purchases.FindByCode(context.Background(), code)
		require.ErrorIs(t, err, purchase.ErrPurchaseNotFound, "购买记录 %s 应随事务回滚", code)
	}
}

// buy 以alice身份购买,返回购买编号
func (f *fixture) buy(t *testing.T, lines ...PurchaseLine) string {
	t.Helper()
	resp, err := f.submit.Execute(context.Background(), SubmitPurchaseRequest{
		CustomerMailAddress: alice,
		Lines:               lines,
	})
	require.NoError(t, err)
	return resp.PurchaseUUID
}
