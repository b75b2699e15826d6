package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"kirana/internal/config"
	"kirana/internal/domain"
	"kirana/internal/infrastructure/logger"
	"kirana/internal/infrastructure/mysql"
	"kirana/internal/order"
	orderrepo "kirana/internal/order/repository"
	productrepo "kirana/internal/product/repository"
	"kirana/internal/realtime"
	"kirana/internal/server"
	usercontroller "kirana/internal/user/controller"
	userrepo "kirana/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	locations := realtime.NewLocationStore()
	dispatcher := realtime.NewDispatcher(locations, zapLogger)
	dispatcher.Start()
	defer dispatcher.Stop()

	var orderModule *order.Module
	var users realtime.UserLookup

	switch cfg.Storage.Backend {
	case "memory":
		zapLogger.Info("using in-memory storage")
		productStore := productrepo.NewMemoryProductRepository()
		userStore := userrepo.NewMemoryUserRepository()
		orderStore := orderrepo.NewMemoryOrderRepository(productStore)
		seedMemoryStores(productStore, userStore)
		orderModule = order.NewMemoryModule(orderStore, productStore, userStore, dispatcher, cfg, zapLogger)
		users = userStore
	default:
		db, err := mysql.NewConnection(cfg.Database)
		if err != nil {
			zapLogger.Fatal("connecting to database", zap.Error(err))
		}
		defer db.Close()
		zapLogger.Info("database connected")

		orderModule = order.NewMySQLModule(db, dispatcher, cfg, zapLogger)
		users = userrepo.NewMySQLUserRepository(db)
	}

	gateway := realtime.NewGateway(
		dispatcher,
		users,
		orderModule.Lifecycle,
		locations,
		zapLogger,
		cfg.Realtime.SendBufferSize,
	)

	tokens := usercontroller.NewTokenController(users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, zapLogger)

	router := server.NewRouter(orderModule.Controller, tokens, gateway, cfg.Auth.JWTSecret, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}

// seedMemoryStores gives the in-memory backend a usable starting state: one
// user per role and a small catalog.
func seedMemoryStores(products *productrepo.MemoryProductRepository, users *userrepo.MemoryUserRepository) {
	users.Put(domain.User{ID: 1, Name: "Asha", Role: domain.RoleAdmin})
	users.Put(domain.User{ID: 10, Name: "Ravi", Role: domain.RoleCustomer, Address: "12 MG Road"})
	users.Put(domain.User{ID: 30, Name: "Karim", Role: domain.RoleDelivery})

	products.Put(domain.Product{ID: 1, Name: "Milk 500ml", Category: "dairy", PricePaise: 3000, Stock: 50, IsActive: true})
	products.Put(domain.Product{ID: 2, Name: "Bread", Category: "bakery", PricePaise: 4500, Stock: 30, IsActive: true})
	products.Put(domain.Product{ID: 3, Name: "Ghee 1l", Category: "dairy", PricePaise: 60000, Stock: 10, IsActive: true})
}
