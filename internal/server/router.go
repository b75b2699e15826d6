package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"kirana/internal/auth"
	ordercontroller "kirana/internal/order/controller"
	"kirana/internal/realtime"
	usercontroller "kirana/internal/user/controller"
)

// NewRouter assembles the HTTP surface: the order API behind JWT auth, the
// token endpoint, and the websocket gateway (which authenticates over its own
// control protocol).
func NewRouter(
	orders *ordercontroller.OrderController,
	tokens *usercontroller.TokenController,
	gateway *realtime.Gateway,
	jwtSecret string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/auth/token", tokens.Mint)

	r.Route("/orders", func(r chi.Router) {
		r.Use(auth.Middleware(jwtSecret, logger))

		r.Post("/", orders.Create)
		r.Get("/", orders.List)
		r.Get("/{orderId}", orders.Get)
		r.Patch("/{orderId}/status", orders.UpdateStatus)
		r.Patch("/{orderId}/assign", orders.AssignPartner)
		r.Patch("/{orderId}/payment", orders.UpdatePayment)
	})

	r.Get("/ws", gateway.HandleWS)

	return r
}
