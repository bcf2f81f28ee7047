package auth

import (
	"fmt"

	authhttp "buildmarket/internal/auth/adapter/http"
	"buildmarket/internal/auth/adapter/persistence/mongodb"
	"buildmarket/internal/auth/adapter/security"
	"buildmarket/internal/auth/domain/repository"
	"buildmarket/internal/auth/usecase"
	"buildmarket/internal/config"
	gatewayusecase "buildmarket/internal/gateway/usecase"
	"buildmarket/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const cookieName = "access_token"

// AuthModule bundles the identity store, token service, denylist, usecase
// and HTTP surface of the authentication module.
type AuthModule struct {
	repository repository.IdentityRepository
	tokenSvc   repository.TokenService
	usecase    usecase.AuthUsecaseInterface
	handler    *authhttp.AuthHTTPHandler
	config     *config.Config
}

// NewAuthModule creates a new authentication module instance. The profile
// store and session resolver come from the gateway module: registration
// writes a users document and the session endpoints read merged profiles.
func NewAuthModule(
	db *mongo.Database,
	redisClient *redis.Client,
	profiles repository.ProfileStore,
	sessions *gatewayusecase.SessionResolver,
	cfg *config.Config,
	log logger.Logger,
) (*AuthModule, error) {
	identityRepo, err := mongodb.NewMongoIdentityRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity repository: %w", err)
	}

	tokenSvc, err := security.NewJWTokenService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	denylist := security.NewRedisTokenDenylist(redisClient)
	authUsecase := usecase.NewAuthUsecase(identityRepo, profiles, tokenSvc, denylist, log)

	handler := authhttp.NewAuthHTTPHandler(
		authUsecase,
		sessions,
		cookieName,
		cfg.AccessTokenTTL,
		false,
	)

	return &AuthModule{
		repository: identityRepo,
		tokenSvc:   tokenSvc,
		usecase:    authUsecase,
		handler:    handler,
		config:     cfg,
	}, nil
}

// RegisterRoutes registers authentication routes under the given router.
func (am *AuthModule) RegisterRoutes(router fiber.Router) {
	am.handler.SetupAuthRoutes(router, am.GetMiddleware())
}

// GetUsecase returns the auth usecase for external access.
func (am *AuthModule) GetUsecase() usecase.AuthUsecaseInterface {
	return am.usecase
}

// GetMiddleware returns the auth middleware.
func (am *AuthModule) GetMiddleware() *authhttp.AuthMiddleware {
	return authhttp.NewAuthMiddleware(am.usecase, cookieName)
}
