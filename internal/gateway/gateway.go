package gateway

import (
	"fmt"

	gatewayhttp "buildmarket/internal/gateway/adapter/http"
	"buildmarket/internal/gateway/adapter/persistence/mongodb"
	"buildmarket/internal/gateway/domain/repository"
	"buildmarket/internal/gateway/policy"
	"buildmarket/internal/gateway/usecase"
	"buildmarket/internal/shared/eventbus"
	"buildmarket/internal/shared/logger"
	"buildmarket/internal/storage"

	authhttp "buildmarket/internal/auth/adapter/http"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// GatewayModule bundles the entity store, access-rule engine, session
// resolver, gateway usecase, and the HTTP and WebSocket surfaces.
type GatewayModule struct {
	store    repository.EntityStore
	engine   *policy.Engine
	sessions *usecase.SessionResolver
	gateway  *usecase.Gateway
	bus      eventbus.Bus

	entityHandler *gatewayhttp.EntityHTTPHandler
	wsHandler     *gatewayhttp.WSHandler
}

// NewGatewayModule wires the entity gateway over the given database.
func NewGatewayModule(
	db *mongo.Database,
	bus eventbus.Bus,
	uploader *storage.Uploader,
	loginPath string,
	log logger.Logger,
) (*GatewayModule, error) {
	engine, err := policy.NewEngine(log)
	if err != nil {
		return nil, fmt.Errorf("failed to compile access rules: %w", err)
	}

	store := mongodb.NewMongoEntityStore(db, log)
	sessions := usecase.NewSessionResolver(store, log, loginPath)
	gw := usecase.NewGateway(store, engine, sessions, bus, log)

	return &GatewayModule{
		store:         store,
		engine:        engine,
		sessions:      sessions,
		gateway:       gw,
		bus:           bus,
		entityHandler: gatewayhttp.NewEntityHTTPHandler(gw, uploader, log),
		wsHandler:     gatewayhttp.NewWSHandler(bus, log),
	}, nil
}

// RegisterRoutes registers entity and upload routes under the API router.
func (gm *GatewayModule) RegisterRoutes(router fiber.Router, middleware *authhttp.AuthMiddleware) {
	gm.entityHandler.RegisterRoutes(router, middleware)
}

// RegisterRealtime registers the event-stream endpoint at the app root.
func (gm *GatewayModule) RegisterRealtime(router fiber.Router) {
	gm.wsHandler.RegisterRoutes(router)
}

// Gateway returns the entity gateway usecase for external access.
func (gm *GatewayModule) Gateway() usecase.EntityGatewayInterface {
	return gm.gateway
}

// Sessions returns the session resolver.
func (gm *GatewayModule) Sessions() *usecase.SessionResolver {
	return gm.sessions
}

// ProfileStore returns the profile writer registration needs.
func (gm *GatewayModule) ProfileStore() *usecase.ProfileWriter {
	return usecase.NewProfileWriter(gm.store)
}

// SubscriberCount reports connected event-stream clients.
func (gm *GatewayModule) SubscriberCount() int {
	return gm.wsHandler.SubscriberCount()
}
