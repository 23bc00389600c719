package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fjod/go_cart/product-api/internal/domain"
	"github.com/fjod/go_cart/product-api/internal/metrics"
	"github.com/fjod/go_cart/product-api/internal/repository"
	"github.com/fjod/go_cart/product-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := discardLogger()
	svc := service.NewProductService(repository.NewMemoryRepository(), nil, nil, logger)
	return NewRouter(NewProductHandler(svc, logger), metrics.NewHTTPMetrics(), logger)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeProduct(t *testing.T, rec *httptest.ResponseRecorder) domain.Product {
	t.Helper()
	var p domain.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	return p
}

func TestRouter_ProductScenario(t *testing.T) {
	srv := newTestServer(t)

	// create 2 products, list returns 2
	for _, body := range []string{
		`{"name":"Product 1","description":"Description 1","price":10}`,
		`{"name":"Product 2","description":"Description 2","price":20}`,
	} {
		rec := do(t, srv, http.MethodPost, "/api/products", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := do(t, srv, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list, 2)

	// create one more
	rec = do(t, srv, http.MethodPost, "/api/products", `{"name":"New Product","description":"New Description","price":30}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeProduct(t, rec)
	assert.Equal(t, "New Product", created.Name)
	for _, p := range list {
		assert.NotEqual(t, p.ID, created.ID)
	}

	// get it back
	rec = do(t, srv, http.MethodGet, "/api/products/"+created.ID.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeProduct(t, rec)
	assert.Equal(t, created, got)

	// nonexistent ObjectId
	rec = do(t, srv, http.MethodGet, "/api/products/"+primitive.NewObjectID().Hex(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Product not found"}`, rec.Body.String())

	// update
	rec = do(t, srv, http.MethodPut, "/api/products/"+created.ID.Hex(), `{"name":"Updated Product","description":"Updated Description","price":20}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeProduct(t, rec)
	assert.Equal(t, "Updated Product", updated.Name)
	assert.Equal(t, "Updated Description", updated.Description)
	assert.Equal(t, 20.0, updated.Price)

	rec = do(t, srv, http.MethodGet, "/api/products/"+created.ID.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, updated, decodeProduct(t, rec))

	// delete, then get is 404
	rec = do(t, srv, http.MethodDelete, "/api/products/"+created.ID.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, updated, decodeProduct(t, rec))

	rec = do(t, srv, http.MethodGet, "/api/products/"+created.ID.Hex(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/products/"+created.ID.Hex(), `{"name":"x","price":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/products/"+created.ID.Hex(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Product not found"}`, rec.Body.String())
}

func TestRouter_ProductJSONShape(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/products", `{"name":"New Product","description":"New Description","price":30}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Len(t, raw, 4)
	for _, key := range []string{"id", "name", "description", "price"} {
		assert.Contains(t, raw, key)
	}
}

func TestRouter_StoreRejectionsAre500(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/products", `{"description":"no name or price"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Server error"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/products/not-an-object-id", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Server error"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRouter_Metrics(t *testing.T) {
	srv := newTestServer(t)

	do(t, srv, http.MethodGet, "/api/products", "")
	rec := do(t, srv, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/products`)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPatch, "/api/products/"+primitive.NewObjectID().Hex(), `{"name":"x"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
