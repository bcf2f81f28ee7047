package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authhttp "buildmarket/internal/auth/adapter/http"
	"buildmarket/internal/auth/domain/model"
	"buildmarket/internal/auth/domain/repository"
	"buildmarket/internal/auth/usecase"
	gatewaymodel "buildmarket/internal/gateway/domain/model"
	"buildmarket/internal/gateway/testutil"
	gatewayusecase "buildmarket/internal/gateway/usecase"
	apperrors "buildmarket/internal/shared/errors"
	"buildmarket/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// Mock usecase
type mockAuthUsecase struct {
	mock.Mock
}

func (m *mockAuthUsecase) Register(ctx context.Context, req usecase.RegisterRequest) (*model.Account, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*model.Account), args.String(1), args.Error(2)
}

func (m *mockAuthUsecase) Login(ctx context.Context, req usecase.LoginRequest) (*model.Account, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*model.Account), args.String(1), args.Error(2)
}

func (m *mockAuthUsecase) Logout(ctx context.Context, tokenString string) error {
	args := m.Called(ctx, tokenString)
	return args.Error(0)
}

func (m *mockAuthUsecase) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	args := m.Called(ctx, tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Claims), args.Error(1)
}

func (m *mockAuthUsecase) UpdatePassword(ctx context.Context, newPassword string) error {
	args := m.Called(ctx, newPassword)
	return args.Error(0)
}

type AuthHTTPTestSuite struct {
	suite.Suite
	app         *fiber.App
	mockUsecase *mockAuthUsecase
	store       *testutil.MemStore
}

func (suite *AuthHTTPTestSuite) SetupTest() {
	suite.mockUsecase = &mockAuthUsecase{}
	suite.store = testutil.NewMemStore()
	suite.app = fiber.New()

	log := logger.NewLoggerWithConfig("error", "text")
	sessions := gatewayusecase.NewSessionResolver(suite.store, log, "/login")
	handler := authhttp.NewAuthHTTPHandler(
		suite.mockUsecase,
		sessions,
		"access_token",
		time.Hour,
		false,
	)
	middleware := authhttp.NewAuthMiddleware(suite.mockUsecase, "access_token")
	handler.SetupAuthRoutes(suite.app.Group("/api/v1/auth"), middleware)
}

func (suite *AuthHTTPTestSuite) postJSON(path string, body interface{}, headers map[string]string) *http.Response {
	data, err := json.Marshal(body)
	suite.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := suite.app.Test(req)
	suite.Require().NoError(err)
	return resp
}

func (suite *AuthHTTPTestSuite) decode(resp *http.Response) map[string]interface{} {
	var body map[string]interface{}
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func (suite *AuthHTTPTestSuite) TestRegisterSuccess() {
	account := &model.Account{UID: "uid-1", Email: "a@b.lk", DisplayName: "Amara"}
	suite.mockUsecase.On("Register", mock.Anything, usecase.RegisterRequest{
		Email:    "a@b.lk",
		Password: "password123",
		FullName: "Amara",
	}).Return(account, "tok-123", nil)

	resp := suite.postJSON("/api/v1/auth/register", map[string]string{
		"email":     "a@b.lk",
		"password":  "password123",
		"full_name": "Amara",
	}, nil)

	suite.Equal(http.StatusCreated, resp.StatusCode)
	body := suite.decode(resp)
	suite.Equal("tok-123", body["access_token"])

	var hasCookie bool
	for _, c := range resp.Cookies() {
		if c.Name == "access_token" && c.Value == "tok-123" {
			hasCookie = true
		}
	}
	suite.True(hasCookie, "token is also set as a cookie")
}

func (suite *AuthHTTPTestSuite) TestRegisterDuplicateEmail() {
	suite.mockUsecase.On("Register", mock.Anything, mock.Anything).
		Return(nil, "", apperrors.ErrEmailTaken)

	resp := suite.postJSON("/api/v1/auth/register", map[string]string{
		"email":    "a@b.lk",
		"password": "password123",
	}, nil)

	suite.Equal(http.StatusConflict, resp.StatusCode)
}

func (suite *AuthHTTPTestSuite) TestLoginInvalidCredentials() {
	suite.mockUsecase.On("Login", mock.Anything, mock.Anything).
		Return(nil, "", apperrors.ErrInvalidCredentials)

	resp := suite.postJSON("/api/v1/auth/login", map[string]string{
		"email":    "a@b.lk",
		"password": "wrong",
	}, nil)

	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
	body := suite.decode(resp)
	suite.Equal("Invalid email or password", body["error"])
}

func (suite *AuthHTTPTestSuite) TestLoginSuccess() {
	account := &model.Account{UID: "uid-1", Email: "a@b.lk"}
	suite.mockUsecase.On("Login", mock.Anything, usecase.LoginRequest{
		Email:    "a@b.lk",
		Password: "password123",
	}).Return(account, "tok-456", nil)

	resp := suite.postJSON("/api/v1/auth/login", map[string]string{
		"email":    "a@b.lk",
		"password": "password123",
	}, nil)

	suite.Equal(http.StatusOK, resp.StatusCode)
	body := suite.decode(resp)
	suite.Equal("tok-456", body["access_token"])
}

func (suite *AuthHTTPTestSuite) TestMeWithoutTokenReturnsLoginURL() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	resp, err := suite.app.Test(req)
	suite.Require().NoError(err)

	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
	body := suite.decode(resp)
	suite.Equal("/login?from=%2Fapi%2Fv1%2Fauth%2Fme", body["login_url"])
}

func (suite *AuthHTTPTestSuite) TestMeResolvesMergedSession() {
	suite.store.Seed(gatewaymodel.KindUser, "uid-1", gatewaymodel.Entity{
		"uid":  "uid-1",
		"role": "admin",
		"city": "Colombo",
	})
	suite.mockUsecase.On("ValidateToken", mock.Anything, "tok-123").
		Return(&repository.Claims{UserID: "uid-1", Email: "a@b.lk", Name: "Amara"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	resp, err := suite.app.Test(req)
	suite.Require().NoError(err)

	suite.Equal(http.StatusOK, resp.StatusCode)
	body := suite.decode(resp)
	suite.Equal("uid-1", body["uid"])
	suite.Equal("admin", body["role"])
}

func (suite *AuthHTTPTestSuite) TestLogoutRevokesAndClearsCookie() {
	suite.mockUsecase.On("ValidateToken", mock.Anything, "tok-123").
		Return(&repository.Claims{UserID: "uid-1"}, nil)
	suite.mockUsecase.On("Logout", mock.Anything, "tok-123").Return(nil)

	resp := suite.postJSON("/api/v1/auth/logout", map[string]string{}, map[string]string{
		"Authorization": "Bearer tok-123",
	})

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.mockUsecase.AssertCalled(suite.T(), "Logout", mock.Anything, "tok-123")
}

func (suite *AuthHTTPTestSuite) TestUpdateProfileRequiresAuth() {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/auth/me", bytes.NewReader([]byte(`{"city":"Galle"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := suite.app.Test(req)
	suite.Require().NoError(err)

	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (suite *AuthHTTPTestSuite) TestUpdateProfileMaterializesDocument() {
	suite.mockUsecase.On("ValidateToken", mock.Anything, "tok-123").
		Return(&repository.Claims{UserID: "uid-2", Email: "new@b.lk"}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/auth/me", bytes.NewReader([]byte(`{"city":"Matara"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer tok-123")
	resp, err := suite.app.Test(req)
	suite.Require().NoError(err)

	suite.Equal(http.StatusOK, resp.StatusCode)
	body := suite.decode(resp)
	suite.Equal("Matara", body["city"])
	suite.Equal("uid-2", body["uid"])
}

func (suite *AuthHTTPTestSuite) TestChangePassword() {
	suite.mockUsecase.On("ValidateToken", mock.Anything, "tok-123").
		Return(&repository.Claims{UserID: "uid-1"}, nil)
	suite.mockUsecase.On("UpdatePassword", mock.Anything, "new-password-123").Return(nil)

	resp := suite.postJSON("/api/v1/auth/change-password", map[string]string{
		"new_password": "new-password-123",
	}, map[string]string{"Authorization": "Bearer tok-123"})

	suite.Equal(http.StatusOK, resp.StatusCode)
}

func TestAuthHTTPTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHTTPTestSuite))
}
