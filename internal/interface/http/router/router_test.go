package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apppurchase "github.com/xiebiao/obar/internal/application/purchase"
	"github.com/xiebiao/obar/internal/domain/customer"
	"github.com/xiebiao/obar/internal/domain/product"
	"github.com/xiebiao/obar/internal/domain/purchase"
	"github.com/xiebiao/obar/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/obar/internal/interface/http/handler"
	"github.com/xiebiao/obar/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/obar/pkg/errors"
	"github.com/xiebiao/obar/pkg/jwt"
)

const (
	alice = "alice@example.com"
	bob   = "bob@example.com"
)

type testServer struct {
	engine    *gin.Engine
	jwt       *jwt.Manager
	products  product.Repository
	purchases purchase.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	tx := memory.NewTxManager(store)
	customers := memory.NewCustomerRepository(store)
	products := memory.NewProductRepository(store)
	purchases := memory.NewPurchaseRepository(store)
	cache := memory.NewStatusCache(time.Minute)
	blacklist := memory.NewTokenBlacklist()
	jwtManager := jwt.NewManager("test-secret", time.Hour)

	ctx := context.Background()
	require.NoError(t, customers.Create(ctx, customer.NewCustomer(alice, "Alice", "Liddell")))
	require.NoError(t, customers.Create(ctx, customer.NewCustomer(bob, "Bob", "Builder")))

	purchaseHandler := handler.NewPurchaseHandler(
		apppurchase.NewSubmitPurchaseUseCase(customers, products, purchases, tx, nil),
		apppurchase.NewGiftPurchaseUseCase(purchases, tx, cache, nil),
		apppurchase.NewUndoGiftUseCase(purchases, tx, cache, nil),
		apppurchase.NewCheckPurchaseUseCase(purchases, customers, cache),
	)
	engine := New(gin.TestMode,
		purchaseHandler,
		handler.NewAuthHandler(blacklist),
		middleware.NewAuthMiddleware(jwtManager, blacklist),
	)

	return &testServer{engine: engine, jwt: jwtManager, products: products, purchases: purchases}
}

func (s *testServer) token(t *testing.T, mail string) string {
	t.Helper()
	token, err := s.jwt.GenerateToken(mail)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func cart(lines ...interface{}) map[string]interface{} {
	details := make([]map[string]interface{}, 0, len(lines)/2)
	for i := 0; i+1 < len(lines); i += 2 {
		details = append(details, map[string]interface{}{
			"product_code":      lines[i],
			"purchase_quantity": lines[i+1],
		})
	}
	return map[string]interface{}{"purchase_details": details}
}

func (s *testServer) submit(t *testing.T, token string, body interface{}) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/operation/purchaseProducts", token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		PurchaseUUID string `json:"purchase_uuid"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	return data.PurchaseUUID
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}

func TestPurchaseFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.products.Create(ctx, product.NewProduct("A", "苹果", 100, 5, true)))
	require.NoError(t, s.products.Create(ctx, product.NewProduct("B", "香蕉", 100, 1, true)))
	aliceToken := s.token(t, alice)
	bobToken := s.token(t, bob)

	code := s.submit(t, aliceToken, cart("A", 2, "B", 1))
	a, _ := s.products.FindByCode(ctx, "A")
	b, _ := s.products.FindByCode(ctx, "B")
	assert.Equal(t, 3, a.Quantity)
	assert.Equal(t, 0, b.Quantity)

	// 查询
	w := s.do(t, http.MethodGet, "/api/v1/operation/checkPurchase/"+code, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		PurchaseGifted    bool      `json:"purchase_gifted"`
		PurchaseDate      time.Time `json:"purchase_date"`
		CustomerFirstName string    `json:"customer_first_name"`
		CustomerLastName  string    `json:"customer_last_name"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &status))
	assert.False(t, status.PurchaseGifted)
	assert.Equal(t, "Alice", status.CustomerFirstName)
	assert.Equal(t, "Liddell", status.CustomerLastName)
	assert.False(t, status.PurchaseDate.IsZero())

	// 非购买人
	w = s.do(t, http.MethodPost, "/api/v1/operation/giftPurchase/"+code, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.ErrCodeNotOwner, decode(t, w).Code)

	// 赠送两次:第二次404
	w = s.do(t, http.MethodPost, "/api/v1/operation/giftPurchase/"+code, aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/operation/giftPurchase/"+code, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrCodeAlreadyGifted, decode(t, w).Code)

	w = s.do(t, http.MethodGet, "/api/v1/operation/checkPurchase/"+code, aliceToken, nil)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &status))
	assert.True(t, status.PurchaseGifted)

	// 撤销两次:第二次404
	w = s.do(t, http.MethodPost, "/api/v1/operation/undoPurchase/"+code, aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/operation/undoPurchase/"+code, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrCodeNotGifted, decode(t, w).Code)
}

func TestPurchaseProducts_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.products.Create(ctx, product.NewProduct("A", "苹果", 100, 5, true)))
	require.NoError(t, s.products.Create(ctx, product.NewProduct("OFF", "下架", 100, 5, false)))
	token := s.token(t, alice)

	cases := []struct {
		name   string
		body   interface{}
		status int
		code   int
	}{
		{"JSON格式错误", `{"purchase_details":`, http.StatusBadRequest, apperrors.ErrCodeBindError},
		{"缺少数量", `{"purchase_details":[{"product_code":"A"}]}`, http.StatusBadRequest, apperrors.ErrCodeBindError},
		{"空购物车", cart(), http.StatusUnprocessableEntity, apperrors.ErrCodeEmptyCart},
		{"数量为0", cart("A", 0), http.StatusUnprocessableEntity, apperrors.ErrCodeInvalidQuantity},
		{"重复商品", cart("A", 1, "A", 1), http.StatusUnprocessableEntity, apperrors.ErrCodeDuplicateProduct},
		{"商品不存在", cart("A", 1, "missing", 1), http.StatusNotFound, apperrors.ErrCodeProductNotFound},
		{"商品下架", cart("OFF", 1), http.StatusUnprocessableEntity, apperrors.ErrCodeProductUnavailable},
		{"库存不足", cart("A", 6), http.StatusUnprocessableEntity, apperrors.ErrCodeInsufficientStock},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/operation/purchaseProducts", token, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, tc.code, decode(t, w).Code)
		})
	}

	a, err := s.products.FindByCode(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 5, a.Quantity, "失败的请求不能扣减库存")
}

func TestPurchaseProducts_UnknownCustomer(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.products.Create(context.Background(), product.NewProduct("A", "苹果", 100, 5, true)))

	w := s.do(t, http.MethodPost, "/api/v1/operation/purchaseProducts", s.token(t, "ghost@example.com"), cart("A", 1))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrCodeCustomerNotFound, decode(t, w).Code)
}

func TestCheckPurchase_Errors(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, alice)

	w := s.do(t, http.MethodGet, "/api/v1/operation/checkPurchase/"+purchase.GenerateCode(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 购买人不存在:500
	orphan := purchase.NewPurchase(purchase.GenerateCode(), "gone@example.com", nil)
	require.NoError(t, s.purchases.Create(context.Background(), orphan))
	w = s.do(t, http.MethodGet, "/api/v1/operation/checkPurchase/"+orphan.Code, token, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperrors.ErrCodeIntegrity, decode(t, w).Code)
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)
	path := "/api/v1/operation/checkPurchase/" + purchase.GenerateCode()

	w := s.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, path, "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrCodeInvalidToken, decode(t, w).Code)

	other, err := jwt.NewManager("other-secret", time.Hour).GenerateToken(alice)
	require.NoError(t, err)
	w = s.do(t, http.MethodGet, path, other, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, alice)
	path := "/api/v1/operation/checkPurchase/" + purchase.GenerateCode()

	w := s.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "已登录,只是购买不存在")

	w = s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrCodeTokenRevoked, decode(t, w).Code)
}

// TestLogout_TokenWithoutExpiry 没有exp的Token无法被吊销，一开始就拒绝
func TestLogout_TokenWithoutExpiry(t *testing.T) {
	s := newTestServer(t)
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, jwt.Claims{Customer: alice}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrCodeInvalidToken, decode(t, w).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/ping", "", nil)

	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
