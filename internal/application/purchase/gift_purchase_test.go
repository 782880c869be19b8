package purchase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/obar/internal/domain/purchase"
	"github.com/xiebiao/obar/internal/infrastructure/persistence/memory"
)

func TestGiftAndUndo(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "A", 5, true)
	code := f.buy(t, PurchaseLine{"A", 1})
	ctx := context.Background()
	req := ToggleGiftRequest{PurchaseUUID: code, CustomerMailAddress: alice}

	require.NoError(t, f.gift.Execute(ctx, req))
	assert.ErrorIs(t, f.gift.Execute(ctx, req), purchase.ErrAlreadyGifted)

	status, err := f.check.Execute(ctx, code)
	require.NoError(t, err)
	assert.True(t, status.PurchaseGifted)

	require.NoError(t, f.undo.Execute(ctx, req))
	assert.ErrorIs(t, f.undo.Execute(ctx, req), purchase.ErrNotGifted)

	status, err = f.check.Execute(ctx, code)
	require.NoError(t, err)
	assert.False(t, status.PurchaseGifted)

	assert.Equal(t, []string{
		RoutingKeyPurchaseCreated,
		RoutingKeyPurchaseGifted,
		RoutingKeyPurchaseUngifted,
	}, f.publisher.keys())
}

// 非购买人无论当前状态都得到NotOwner,且状态不变
func TestGift_NotOwner(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "A", 5, true)
	code := f.buy(t, PurchaseLine{"A", 1})
	ctx := context.Background()
	intruder := ToggleGiftRequest{PurchaseUUID: code, CustomerMailAddress: bob}

	assert.ErrorIs(t, f.gift.Execute(ctx, intruder), purchase.ErrNotOwner)
	assert.ErrorIs(t, f.undo.Execute(ctx, intruder), purchase.ErrNotOwner)

	require.NoError(t, f.gift.Execute(ctx, ToggleGiftRequest{PurchaseUUID: code, CustomerMailAddress: alice}))

	assert.ErrorIs(t, f.gift.Execute(ctx, intruder), purchase.ErrNotOwner)
	assert.ErrorIs(t, f.undo.Execute(ctx, intruder), purchase.ErrNotOwner)

	p, err := f.purchases.FindByCode(ctx, code)
	require.NoError(t, err)
	assert.True(t, p.Gifted)
}

func TestGift_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.gift.Execute(ctx, ToggleGiftRequest{PurchaseUUID: purchase.GenerateCode(), CustomerMailAddress: alice})
	assert.ErrorIs(t, err, purchase.ErrPurchaseNotFound)

	err = f.undo.Execute(ctx, ToggleGiftRequest{PurchaseUUID: "not-a-uuid", CustomerMailAddress: alice})
	assert.ErrorIs(t, err, purchase.ErrPurchaseNotFound)
}

// 状态变化后缓存失效,查询读到新状态
func TestGift_InvalidatesCache(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "A", 5, true)
	code := f.buy(t, PurchaseLine{"A", 1})
	ctx := context.Background()

	_, err := f.check.Execute(ctx, code)
	require.NoError(t, err)
	_, hit, _ := f.cache.Get(ctx, code)
	require.True(t, hit)

	require.NoError(t, f.gift.Execute(ctx, ToggleGiftRequest{PurchaseUUID: code, CustomerMailAddress: alice}))
	_, hit, _ = f.cache.Get(ctx, code)
	assert.False(t, hit)
}

// 缓存故障不影响赠送
func TestGift_CacheFailureIgnored(t *testing.T) {
	store := memory.NewStore()
	tx := memory.NewTxManager(store)
	purchases := memory.NewPurchaseRepository(store)
	uc := NewGiftPurchaseUseCase(purchases, tx, brokenCache{}, nil)

	p := purchase.NewPurchase(purchase.GenerateCode(), alice, nil)
	require.NoError(t, purchases.Create(context.Background(), p))

	require.NoError(t, uc.Execute(context.Background(), ToggleGiftRequest{PurchaseUUID: p.Code, CustomerMailAddress: alice}))
	got, err := purchases.FindByCode(context.Background(), p.Code)
	require.NoError(t, err)
	assert.True(t, got.Gifted)
}

// 并发赠送同一购买:只有一个成功,其余AlreadyGifted
func TestGift_Concurrent(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "A", 5, true)
	code := f.buy(t, PurchaseLine{"A", 1})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.gift.Execute(context.Background(), ToggleGiftRequest{PurchaseUUID: code, CustomerMailAddress: alice})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, purchase.ErrAlreadyGifted)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, success)
}
