package order

import (
	"database/sql"

	"go.uber.org/zap"

	"kirana/internal/config"
	"kirana/internal/domain"
	"kirana/internal/order/controller"
	orderrepo "kirana/internal/order/repository"
	"kirana/internal/order/service"
	"kirana/internal/order/usecase"
	productrepo "kirana/internal/product/repository"
	userrepo "kirana/internal/user/repository"
)

// Broadcaster is what the order module needs from the realtime layer.
type Broadcaster interface {
	BroadcastOrderUpdate(order *domain.Order)
	BroadcastOrderCreated(order *domain.Order)
}

type Module struct {
	Controller *controller.OrderController
	Lifecycle  *service.LifecycleService
}

// NewMySQLModule wires the order feature against the durable store.
func NewMySQLModule(db *sql.DB, broadcaster Broadcaster, cfg *config.Config, logger *zap.Logger) *Module {
	orders := orderrepo.NewMySQLOrderRepository(db)
	products := productrepo.NewMySQLProductRepository(db)
	users := userrepo.NewMySQLUserRepository(db)

	return newModule(orders, products, users, broadcaster, cfg, logger)
}

// NewMemoryModule wires the order feature against in-memory stores, mirroring
// the original in-process deployment.
func NewMemoryModule(
	orders *orderrepo.MemoryOrderRepository,
	products *productrepo.MemoryProductRepository,
	users *userrepo.MemoryUserRepository,
	broadcaster Broadcaster,
	cfg *config.Config,
	logger *zap.Logger,
) *Module {
	return newModule(orders, products, users, broadcaster, cfg, logger)
}

type orderStore interface {
	service.OrderRepository
	usecase.OrderStore
}

func newModule(
	orders orderStore,
	products usecase.ProductRepository,
	users service.UserRepository,
	broadcaster Broadcaster,
	cfg *config.Config,
	logger *zap.Logger,
) *Module {
	lifecycle := service.NewLifecycleService(
		orders,
		users,
		broadcaster,
		logger,
		cfg.Order.DefaultETAMinutes,
	)

	createOrder := usecase.NewCreateOrderUseCase(
		orders,
		products,
		broadcaster,
		logger,
		cfg.Order,
		cfg.Order.MaxRetryAttempts,
	)

	return &Module{
		Controller: controller.NewOrderController(createOrder, lifecycle, logger),
		Lifecycle:  lifecycle,
	}
}
