// Package memory 进程内存储
//
// 实现与MySQL仓储相同的接口和事务语义，用于本地调试和单元测试：
//   - 事务串行执行（相当于所有写事务互相加锁），事务内读写的是已提交数据的副本
//   - fn返回nil时整体替换已提交数据（COMMIT），返回error或panic时丢弃副本（ROLLBACK）
//   - 事务外的读操作只能看到已提交数据
//
// 每个事务都会复制全部数据，只适合小数据量。
package memory

import (
	"context"
	"sync"

	"github.com/xiebiao/obar/internal/domain/customer"
	"github.com/xiebiao/obar/internal/domain/product"
	"github.com/xiebiao/obar/internal/domain/purchase"
)

// state 一份完整的数据
type state struct {
	customers map[string]customer.Customer // key: 邮箱
	products  map[string]product.Product   // key: 商品编码
	purchases map[string]purchase.Purchase // key: 购买编号
	nextID    uint
}

func newState() *state {
	return &state{
		customers: make(map[string]customer.Customer),
		products:  make(map[string]product.Product),
		purchases: make(map[string]purchase.Purchase),
	}
}

func (s *state) clone() *state {
	cp := &state{
		customers: make(map[string]customer.Customer, len(s.customers)),
		products:  make(map[string]product.Product, len(s.products)),
		purchases: make(map[string]purchase.Purchase, len(s.purchases)),
		nextID:    s.nextID,
	}
	for k, v := range s.customers {
		cp.customers[k] = v
	}
	for k, v := range s.products {
		cp.products[k] = v
	}
	for k, v := range s.purchases {
		v.Items = append([]purchase.Item(nil), v.Items...)
		cp.purchases[k] = v
	}
	return cp
}

func (s *state) id() uint {
	s.nextID++
	return s.nextID
}

// txKey context中保存事务副本的key
type txKey struct{}

// Store 内存数据库
type Store struct {
	txMu      sync.Mutex   // 串行化事务
	mu        sync.RWMutex // 保护committed
	committed *state
}

// NewStore 创建内存数据库
func NewStore() *Store {
	return &Store{committed: newState()}
}

// TxManager 内存事务管理器
type TxManager struct {
	store *Store
}

// NewTxManager 创建事务管理器
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Transaction 执行事务
// 已经在事务中时直接复用外层事务
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.store.transaction(ctx, fn)
}

func (s *Store) transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.committed.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, work)); err != nil {
		return err
	}

	s.mu.Lock()
	s.committed = work
	s.mu.Unlock()
	return nil
}

// read 读操作：事务内读副本，事务外读已提交数据
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if work, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(work)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.committed)
}

// write 写操作：事务外的写自动开启一个事务
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	return s.transaction(ctx, func(ctx context.Context) error {
		return fn(ctx.Value(txKey{}).(*state))
	})
}
