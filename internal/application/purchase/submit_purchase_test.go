package purchase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/obar/internal/domain/customer"
	"github.com/xiebiao/obar/internal/domain/product"
	"github.com/xiebiao/obar/internal/domain/purchase"
)

func TestSubmitPurchase_Success(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "A", 5, true)
	f.addProduct(t, "B", 1, true)

	code := f.buy(t, PurchaseLine{"A", 2}, PurchaseLine{"B", 1})

	assert.True(t, purchase.IsValidCode(code))
	assert.Equal(t, 3, f.stock(t, "A"))
	assert.Equal(t, 0, f.stock(t, "B"))

	p, err := f.purchases.FindByCode(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, alice, p.CustomerMailAddress)
	assert.False(t, p.Gifted)
	assert.Equal(t, []purchase.Item{{ProductCode: "A", Quantity: 2}, {ProductCode: "B", Quantity: 1}}, p.Items)

	// 返回的编号可以直接查询
	status, err := f.check.Execute(context.Background(), code)
	require.NoError(t, err)
	assert.False(t, status.PurchaseGifted)
	assert.Equal(t, "Alice", status.CustomerFirstName)

	assert.Equal(t, []string{RoutingKeyPurchaseCreated}, f.publisher.keys())
}

func TestSubmitPurchase_Validation(t *testing.T) {
	cases := []struct {
		name  string
		lines []PurchaseLine
		want  error
	}{
		{"空购物车", nil, purchase.ErrEmptyCart},
		{"数量为0", []PurchaseLine{{"A", 0}}, purchase.ErrInvalidQuantity},
		{"数量为负", []PurchaseLine{{"A", 1}, {"B", -1}}, purchase.ErrInvalidQuantity},
		{"重复商品", []PurchaseLine{{"A", 1}, {"A", 2}}, purchase.ErrDuplicateProduct},
		// 数量校验先于重复校验
		{"重复且数量非法", []PurchaseLine{{"A", 1}, {"A", 0}}, purchase.ErrInvalidQuantity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.addProduct(t, "A", 5, true)
			f.addProduct(t, "B", 5, true)

			_, err := f.submit.Execute(context.Background(), SubmitPurchaseRequest{
				CustomerMailAddress: alice,
				Lines:               tc.lines,
			})
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, 5, f.stock(t, "A"))
			assert.Equal(t, 5, f.stock(t, "B"))
			assert.Empty(t, f.publisher.keys())
		})
	}
}

func TestSubmitPurchase_CustomerNotFound(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "A", 5, true)

	_, err := f.submit.Execute(context.Background(), SubmitPurchaseRequest{
		CustomerMailAddress: "ghost@example.com",
		Lines:               []PurchaseLine{{"A", 1}},
	})
	assert.ErrorIs(t, err, customer.ErrCustomerNotFound)
	assert.Equal(t, 5, f.stock(t, "A"))
}

// 任意一行失败,之前已处理的行也不扣减
func TestSubmitPurchase_AllOrNothing(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T, f *fixture)
		want  error
	}{
		{"商品不存在", func(t *testing.T, f *fixture) {}, product.ErrProductNotFound},
		{"商品下架", func(t *testing.T, f *fixture) { f.addProduct(t, "Z", 5, false) }, product.ErrProductUnavailable},
		{"商品售罄", func(t *testing.T, f *fixture) { f.addProduct(t, "Z", 0, true) }, product.ErrOutOfStock},
		{"库存不足", func(t *testing.T, f *fixture) { f.addProduct(t, "Z", 1, true) }, product.ErrInsufficientStock},
		{"下架优先于售罄", func(t *testing.T, f *fixture) { f.addProduct(t, "Z", 0, false) }, product.ErrProductUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.addProduct(t, "A", 5, true)
			tc.setup(t, f)

			_, err := f.submit.Execute(context.Background(), SubmitPurchaseRequest{
				CustomerMailAddress: alice,
				Lines:               []PurchaseLine{{"A", 2}, {"Z", 2}},
			})
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, 5, f.stock(t, "A"), "第一行的扣减必须回滚")
			assert.Empty(t, f.purchases.created(), "失败的购物车不应写入购买记录")
			f.requireNoPurchase(t)
			assert.Empty(t, f.publisher.keys())
		})
	}
}

// 购买记录写入后事务失败,记录和库存一起回滚
func TestSubmitPurchase_CreateFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "A", 5, true)
	f.addProduct(t, "B", 3, true)
	errInsert := errors.New("insert purchase_items failed")
	f.purchases.createErr = errInsert

	_, err := f.submit.Execute(context.Background(), SubmitPurchaseRequest{
		CustomerMailAddress: alice,
		Lines:               []PurchaseLine{{"A", 2}, {"B", 1}},
	})
	assert.ErrorIs(t, err, errInsert)

	require.Len(t, f.purchases.created(), 1)
	f.requireNoPurchase(t)
	assert.Equal(t, 5, f.stock(t, "A"))
	assert.Equal(t, 3, f.stock(t, "B"))
	assert.Empty(t, f.publisher.keys())
}

// 多行都有问题时按购物车顺序报告第一个
func TestSubmitPurchase_ErrorFollowsCartOrder(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "A", 1, true)

	_, err := f.submit.Execute(context.Background(), SubmitPurchaseRequest{
		CustomerMailAddress: alice,
		Lines:               []PurchaseLine{{"missing", 1}, {"A", 2}},
	})
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	_, err = f.submit.Execute(context.Background(), SubmitPurchaseRequest{
		CustomerMailAddress: alice,
		Lines:               []PurchaseLine{{"A", 2}, {"missing", 1}},
	})
	assert.ErrorIs(t, err, product.ErrInsufficientStock)
}

func TestSubmitPurchase_PublishFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "A", 5, true)
	f.publisher.err = errors.New("broker down")

	resp, err := f.submit.Execute(context.Background(), SubmitPurchaseRequest{
		CustomerMailAddress: alice,
		Lines:               []PurchaseLine{{"A", 1}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.PurchaseUUID)
	assert.Equal(t, 4, f.stock(t, "A"))
}

// 并发购买同一商品:成功次数等于库存,库存不为负
func TestSubmitPurchase_Concurrent(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "A", 10, true)
	f.addProduct(t, "B", 100, true)

	const buyers = 40
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		failures []error
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// 一半的购物车把A放在后面,验证加锁顺序与购物车顺序无关
			lines := []PurchaseLine{{"A", 1}, {"B", 1}}
			if i%2 == 0 {
				lines = []PurchaseLine{{"B", 1}, {"A", 1}}
			}
			_, err := f.submit.Execute(context.Background(), SubmitPurchaseRequest{
				CustomerMailAddress: alice,
				Lines:               lines,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
				return
			}
			failures = append(failures, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, success)
	assert.Equal(t, 0, f.stock(t, "A"))
	assert.Equal(t, 90, f.stock(t, "B"), "失败的购买不能扣减B")
	for _, err := range failures {
		assert.ErrorIs(t, err, product.ErrOutOfStock)
	}
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "", failureReason(nil))
	assert.Equal(t, "insufficient_stock", failureReason(product.ErrInsufficientStock.Withf("x")))
	assert.Equal(t, "duplicate_product", failureReason(purchase.ErrDuplicateProduct))
	assert.Equal(t, "internal", failureReason(errors.New("boom")))
}
