package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/app"
	"partsshop_v1_202610/internal/config"
	"partsshop_v1_202610/internal/middleware"
	"partsshop_v1_202610/internal/router"
	"partsshop_v1_202610/internal/service"
	"partsshop_v1_202610/internal/testutil"
	"partsshop_v1_202610/pkg/cache"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetJWTConfig(&middleware.JWTConfig{SecretKey: "controller-test"})
}

// ==================== 测试辅助 ====================

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiEnv struct {
	t      *testing.T
	engine *gin.Engine
	deps   *app.Dependencies
	admin  string
	staff  string
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	db := testutil.NewDB(t)

	storage, err := service.NewLocalStorage(&config.StorageConfig{
		BasePath: t.TempDir(),
		Endpoint: "http://localhost/uploads",
	})
	require.NoError(t, err)

	deps := app.Build(db, cache.NewMemoryCache(time.Minute), app.Options{
		Storage: storage,
		Bank:    service.BankTransferOptions{BankName: "Ziraat", IBAN: "TR00", AccountHolder: "Parts Shop"},
	})
	env := &apiEnv{
		t:      t,
		engine: router.New(deps.Controllers, router.Options{UploadDir: storage.Dir()}),
		deps:   deps,
	}

	ctx := context.Background()
	admin, _, err := deps.Services.User.EnsureAdmin(ctx, "admin", "admin123", "")
	require.NoError(t, err)
	env.admin, _, err = middleware.GenerateTokenPair(admin.ID, admin.Username, admin.Role)
	require.NoError(t, err)
	env.staff, _, err = middleware.GenerateTokenPair(admin.ID+100, "depo", "staff")
	require.NoError(t, err)
	return env
}

func (e *apiEnv) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	e.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

// mustData 断言成功并解出 data
func (e *apiEnv) mustData(method, path string, body interface{}, out interface{}) {
	e.t.Helper()
	w, env := e.do(method, path, e.admin, body)
	require.Equal(e.t, http.StatusOK, w.Code, "%s %s: %s", method, path, w.Body.String())
	require.Equal(e.t, 0, env.Code)
	if out != nil {
		require.NoError(e.t, json.Unmarshal(env.Data, out))
	}
}

type idResp struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
}

func checkoutReq(productID int64) *dto.CheckoutReq {
	return &dto.CheckoutReq{
		CustomerName:  "Mehmet Demir",
		CustomerEmail: "mehmet@example.com",
		ShippingAddress: dto.ShippingAddress{
			FullName: "Mehmet Demir",
			Phone:    "+90 555 111 22 33",
			City:     "Ankara",
			Line1:    "Kızılay Mah. 5",
		},
		Items: []dto.CheckoutItem{{ProductID: productID, Quantity: 1}},
	}
}

// stepMotorCatalog 通过后台接口搭建 Elektronik → Step Motor | Sürücü
func (e *apiEnv) stepMotorCatalog() (root, child idResp) {
	e.mustData("POST", "/api/admin/categories", gin.H{"name": "Elektronik"}, &root)
	e.mustData("POST", "/api/admin/categories", gin.H{"name": "Step Motor | Sürücü", "parent_id": root.ID}, &child)

	var attr idResp
	e.mustData("POST", "/api/admin/attributes", gin.H{"key": "step_motor_gucu", "label": "Step Motor Gücü"}, &attr)
	for i, v := range []string{"0.4 Nm", "3 Nm", "12 Nm"} {
		e.mustData("POST", fmt.Sprintf("/api/admin/attributes/%d/options", attr.ID), gin.H{"value": v, "order": i}, nil)
	}

	e.mustData("POST", fmt.Sprintf("/api/admin/categories/%d/filters", root.ID),
		gin.H{"builtin_key": "brand", "ui_type": "CHECKBOX", "order": 1}, nil)
	e.mustData("POST", fmt.Sprintf("/api/admin/categories/%d/filters", root.ID),
		gin.H{"builtin_key": "price", "ui_type": "RANGE", "order": 2}, nil)
	e.mustData("POST", fmt.Sprintf("/api/admin/categories/%d/filters", child.ID),
		gin.H{"attribute_id": attr.ID, "ui_type": "RADIO", "order": 3, "is_inherited": false}, nil)

	var brand idResp
	e.mustData("POST", "/api/admin/brands", gin.H{"name": "Leadshine"}, &brand)
	for _, p := range []struct {
		name  string
		price string
		power string
	}{
		{"Nema 17 0.4 Nm", "350.00", "0.4 Nm"},
		{"Nema 23 3 Nm", "1250.00", "3 Nm"},
	} {
		e.mustData("POST", "/api/admin/products", gin.H{
			"name":        p.name,
			"category_id": child.ID,
			"brand_id":    brand.ID,
			"price":       p.price,
			"stock":       5,
			"attributes":  []gin.H{{"attribute_id": attr.ID, "value": p.power}},
		}, nil)
	}
	return root, child
}

// ==================== 测试用例 ====================

func TestAdminRoutes_Auth(t *testing.T) {
	env := newAPIEnv(t)
	body := gin.H{"name": "Elektronik"}

	w, _ := env.do("POST", "/api/admin/categories", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do("POST", "/api/admin/categories", env.staff, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp := env.do("POST", "/api/admin/categories", env.admin, body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "创建成功", resp.Message)
}

func TestLogin(t *testing.T) {
	env := newAPIEnv(t)

	w, resp := env.do("POST", "/api/auth/login", "", gin.H{"username": "admin", "password": "admin123"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &login))
	assert.NotEmpty(t, login.AccessToken)

	w, _ = env.do("GET", "/api/auth/profile", login.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 同一 IP 冷却期内再次登录被限流
	w, _ = env.do("POST", "/api/auth/login", "", gin.H{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCategoryPage_StepMotor(t *testing.T) {
	env := newAPIEnv(t)
	_, child := env.stepMotorCatalog()

	w, resp := env.do("GET", "/api/categories/"+child.Slug, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page struct {
		Filters []struct {
			ID      string `json:"id"`
			Type    string `json:"type"`
			Options []struct {
				Value string `json:"value"`
			} `json:"options"`
		} `json:"filters"`
		PriceRange struct {
			Min string `json:"min"`
			Max string `json:"max"`
		} `json:"price_range"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))

	ids := make([]string, 0, len(page.Filters))
	for _, f := range page.Filters {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"brand", "price", "step_motor_gucu"}, ids)
	assert.Equal(t, "RADIO", page.Filters[2].Type)
	assert.Len(t, page.Filters[2].Options, 3)
	require.Len(t, page.Filters[0].Options, 1)
	assert.Equal(t, "leadshine", page.Filters[0].Options[0].Value)

	w, _ = env.do("GET", "/api/categories/yok", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategoryProducts_Filtering(t *testing.T) {
	env := newAPIEnv(t)
	_, child := env.stepMotorCatalog()

	tests := []struct {
		name  string
		query string
		total int64
	}{
		{"无筛选", "", 2},
		{"属性筛选", "step_motor_gucu=3+Nm", 1},
		{"属性多选", "step_motor_gucu=3+Nm&step_motor_gucu=0.4+Nm", 2},
		{"逗号按原值匹配", "step_motor_gucu=3+Nm,0.4+Nm", 0},
		{"价格区间", "price=100-500", 1},
		{"品牌加价格", "brand=leadshine&price=1000-", 1},
		{"未知参数忽略", "color=red", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := env.do("GET", "/api/categories/"+child.Slug+"/products?"+tt.query, "", nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var list struct {
				Total int64 `json:"total"`
			}
			require.NoError(t, json.Unmarshal(resp.Data, &list))
			assert.Equal(t, tt.total, list.Total)
		})
	}
}

func TestCategoryFilter_WriteErrors(t *testing.T) {
	env := newAPIEnv(t)
	root, child := env.stepMotorCatalog()

	tests := []struct {
		name   string
		body   gin.H
		status int
	}{
		{"属性与内置二者皆有", gin.H{"attribute_id": 1, "builtin_key": "brand", "ui_type": "CHECKBOX"}, http.StatusBadRequest},
		{"未知内置键", gin.H{"builtin_key": "color", "ui_type": "CHECKBOX"}, http.StatusBadRequest},
		{"价格非 RANGE", gin.H{"builtin_key": "price", "ui_type": "CHECKBOX"}, http.StatusBadRequest},
		{"重复绑定", gin.H{"builtin_key": "brand", "ui_type": "CHECKBOX"}, http.StatusConflict},
		{"属性不存在", gin.H{"attribute_id": 999, "ui_type": "RADIO"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := env.do("POST", fmt.Sprintf("/api/admin/categories/%d/filters", root.ID), env.admin, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	// 把根分类挂到子分类下形成环
	w, _ := env.do("PUT", fmt.Sprintf("/api/admin/categories/%d", root.ID), env.admin, gin.H{"parent_id": child.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCheckoutAndTrack(t *testing.T) {
	env := newAPIEnv(t)
	_, child := env.stepMotorCatalog()

	var list struct {
		List []struct {
			ID int64 `json:"id"`
		} `json:"list"`
	}
	_, resp := env.do("GET", "/api/categories/"+child.Slug+"/products?sort=price_asc", "", nil)
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list.List, 2)

	order := gin.H{
		"customer_name":  "Ayşe Yılmaz",
		"customer_email": "ayse@example.com",
		"shipping_address": gin.H{
			"full_name": "Ayşe Yılmaz",
			"phone":     "+90 555 000 00 00",
			"city":      "İstanbul",
			"line1":     "Atatürk Cad. No:1",
		},
		"items": []gin.H{{"product_id": list.List[0].ID, "quantity": 2}},
	}
	w, resp := env.do("POST", "/api/checkout", "", order)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		OrderNo    string `json:"order_no"`
		GrandTotal string `json:"grand_total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.True(t, decimal.RequireFromString(created.GrandTotal).Equal(decimal.NewFromInt(700)), created.GrandTotal)

	// 冷却期内重复下单被限流
	w, _ = env.do("POST", "/api/checkout", "", order)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w, _ = env.do("GET", "/api/orders/track?order_no="+created.OrderNo+"&email=AYSE@example.com", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = env.do("GET", "/api/orders/track?order_no="+created.OrderNo+"&email=other@example.com", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderStatus_InvalidTransition(t *testing.T) {
	env := newAPIEnv(t)
	_, child := env.stepMotorCatalog()

	_, resp := env.do("GET", "/api/categories/"+child.Slug+"/products", "", nil)
	var list struct {
		List []struct {
			ID int64 `json:"id"`
		} `json:"list"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))

	checkout, err := env.deps.Services.Order.Checkout(context.Background(), checkoutReq(list.List[0].ID))
	require.NoError(t, err)

	var orders struct {
		List []struct {
			ID int64 `json:"id"`
		} `json:"list"`
	}
	env.mustData("GET", "/api/admin/orders?keyword="+checkout.OrderNo, nil, &orders)
	require.Len(t, orders.List, 1)
	id := orders.List[0].ID

	w, _ := env.do("PUT", fmt.Sprintf("/api/admin/orders/%d/status", id), env.admin, gin.H{"status": "shipped"})
	assert.Equal(t, http.StatusConflict, w.Code)

	env.mustData("PUT", fmt.Sprintf("/api/admin/orders/%d/status", id), gin.H{"status": "paid"}, nil)

	var stats struct {
		PaidOrders int64 `json:"paid_orders"`
	}
	env.mustData("GET", "/api/admin/orders/stats", nil, &stats)
	assert.Equal(t, int64(1), stats.PaidOrders)
}

func TestUpload_Multipart(t *testing.T) {
	env := newAPIEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "motor.png")
	require.NoError(t, err)
	_, _ = part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/admin/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.admin)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	var uploaded struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &uploaded))

	// 静态路由可访问
	path := uploaded.URL[len("http://localhost"):]
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newAPIEnv(t)

	w, _ := env.do("GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do("GET", "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
