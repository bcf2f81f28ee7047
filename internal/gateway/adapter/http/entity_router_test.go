package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	authhttp "buildmarket/internal/auth/adapter/http"
	authmodel "buildmarket/internal/auth/domain/model"
	"buildmarket/internal/auth/domain/repository"
	authusecase "buildmarket/internal/auth/usecase"
	gatewayhttp "buildmarket/internal/gateway/adapter/http"
	"buildmarket/internal/gateway/domain/model"
	"buildmarket/internal/gateway/policy"
	"buildmarket/internal/gateway/testutil"
	"buildmarket/internal/gateway/usecase"
	apperrors "buildmarket/internal/shared/errors"
	"buildmarket/internal/shared/eventbus"
	"buildmarket/internal/shared/logger"
	"buildmarket/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTokens validates against a fixed token table; registration and login
// are out of scope for these tests.
type fakeTokens struct {
	claims map[string]*repository.Claims
}

func (f *fakeTokens) Register(ctx context.Context, req authusecase.RegisterRequest) (*authmodel.Account, string, error) {
	return nil, "", apperrors.ErrInvalidInput
}

func (f *fakeTokens) Login(ctx context.Context, req authusecase.LoginRequest) (*authmodel.Account, string, error) {
	return nil, "", apperrors.ErrInvalidCredentials
}

func (f *fakeTokens) Logout(ctx context.Context, tokenString string) error {
	return nil
}

func (f *fakeTokens) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	if claims, ok := f.claims[tokenString]; ok {
		return claims, nil
	}
	return nil, apperrors.ErrTokenInvalid
}

func (f *fakeTokens) UpdatePassword(ctx context.Context, newPassword string) error {
	return nil
}

type entityAPIFixture struct {
	app   *fiber.App
	store *testutil.MemStore
}

func newEntityAPI(t *testing.T) *entityAPIFixture {
	t.Helper()

	log := logger.NewLoggerWithConfig("error", "text")
	store := testutil.NewMemStore()
	engine, err := policy.NewEngine(log)
	require.NoError(t, err)

	bus := eventbus.NewEventBus(nil)
	sessions := usecase.NewSessionResolver(store, log, "/login")
	gw := usecase.NewGateway(store, engine, sessions, bus, log)

	fileStore, err := storage.NewLocalStore(t.TempDir(), "http://localhost:3000")
	require.NoError(t, err)
	uploader := storage.NewUploader(fileStore, log)

	tokens := &fakeTokens{claims: map[string]*repository.Claims{
		"owner-token": {UserID: "uid-owner", Email: "owner@example.lk"},
		"other-token": {UserID: "uid-other", Email: "other@example.lk"},
	}}
	middleware := authhttp.NewAuthMiddleware(tokens, "access_token")

	app := fiber.New()
	handler := gatewayhttp.NewEntityHTTPHandler(gw, uploader, log)
	handler.RegisterRoutes(app.Group("/api/v1"), middleware)

	return &entityAPIFixture{app: app, store: store}
}

func (fx *entityAPIFixture) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := fx.app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeEntity(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestCreateAndGetListing(t *testing.T) {
	fx := newEntityAPI(t)

	resp := fx.request(t, http.MethodPost, "/api/v1/entities/listings", "owner-token", map[string]interface{}{
		"title": "Drill",
		"price": 45000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeEntity(t, resp)
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, "owner@example.lk", created["created_by"])
	assert.NotEmpty(t, created["created_date"])

	resp = fx.request(t, http.MethodGet, "/api/v1/entities/listings/"+created["id"].(string), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeEntity(t, resp)
	assert.Equal(t, "Drill", got["title"])
}

func TestCreateRequiresToken(t *testing.T) {
	fx := newEntityAPI(t)

	resp := fx.request(t, http.MethodPost, "/api/v1/entities/listings", "", map[string]interface{}{"title": "Drill"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = fx.request(t, http.MethodPost, "/api/v1/entities/listings", "bogus", map[string]interface{}{"title": "Drill"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListWithQueryParamCriteria(t *testing.T) {
	fx := newEntityAPI(t)

	for _, e := range []map[string]interface{}{
		{"title": "Drill", "status": "active"},
		{"title": "Ladder", "status": "sold"},
		{"title": "Mixer", "status": "active"},
	} {
		resp := fx.request(t, http.MethodPost, "/api/v1/entities/listings", "owner-token", e)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := fx.request(t, http.MethodGet, "/api/v1/entities/listings?status=active", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	assert.Len(t, records, 2)

	resp = fx.request(t, http.MethodGet, "/api/v1/entities/listings?limit=1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	assert.Len(t, records, 1)
}

func TestQueryEndpointKeepsCriteriaTypes(t *testing.T) {
	fx := newEntityAPI(t)

	resp := fx.request(t, http.MethodPost, "/api/v1/entities/listings", "owner-token", map[string]interface{}{
		"title": "Drill", "price": 45000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = fx.request(t, http.MethodPost, "/api/v1/entities/listings/query", "", map[string]interface{}{
		"criteria": map[string]interface{}{"price": 45000},
		"limit":    10,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	assert.Len(t, records, 1)
}

func TestUpdateOwnershipEnforced(t *testing.T) {
	fx := newEntityAPI(t)

	resp := fx.request(t, http.MethodPost, "/api/v1/entities/listings", "owner-token", map[string]interface{}{"title": "Drill"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeEntity(t, resp)["id"].(string)

	resp = fx.request(t, http.MethodPut, "/api/v1/entities/listings/"+id, "other-token", map[string]interface{}{"status": "sold"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = fx.request(t, http.MethodPut, "/api/v1/entities/listings/"+id, "owner-token", map[string]interface{}{"status": "sold"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "sold", decodeEntity(t, resp)["status"])
}

func TestDeleteMapsNotFound(t *testing.T) {
	fx := newEntityAPI(t)

	resp := fx.request(t, http.MethodDelete, "/api/v1/entities/listings/000000000000000000000099", "owner-token", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownCollectionIs404(t *testing.T) {
	fx := newEntityAPI(t)

	resp := fx.request(t, http.MethodGet, "/api/v1/entities/widgets", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeEntity(t, resp)
	assert.Contains(t, body["error"], "widgets")
}

func TestQueryErrorMapsToFailedDependency(t *testing.T) {
	fx := newEntityAPI(t)
	fx.store.FindErr = apperrors.NewQueryError("missing composite index")

	resp := fx.request(t, http.MethodGet, "/api/v1/entities/listings?status=active", "", nil)
	assert.Equal(t, http.StatusFailedDependency, resp.StatusCode)
}

func TestUploadEndpoint(t *testing.T) {
	fx := newEntityAPI(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "site photo.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer owner-token")
	resp, err := fx.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeEntity(t, resp)
	url, _ := body["file_url"].(string)
	assert.Contains(t, url, "/files/")
	assert.Contains(t, url, "site_photo.jpg")
}

func TestUploadRequiresToken(t *testing.T) {
	fx := newEntityAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", bytes.NewReader(nil))
	resp, err := fx.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestKindCollectionRouting(t *testing.T) {
	fx := newEntityAPI(t)

	// Every kind is served by the same routes.
	for _, kind := range model.Kinds() {
		resp := fx.request(t, http.MethodGet, "/api/v1/entities/"+kind.Collection(), "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, kind)
	}
}
