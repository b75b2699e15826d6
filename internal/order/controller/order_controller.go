package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"kirana/internal/auth"
	"kirana/internal/domain"
	"kirana/internal/dto"
	apperrors "kirana/internal/errors"
)

type CreateOrderUseCase interface {
	CreateOrder(ctx context.Context, userID uint64, items []dto.NewOrderItem, address, paymentMethod string) (*domain.Order, error)
}

type LifecycleService interface {
	RequestTransition(ctx context.Context, orderID uint64, actor *auth.Principal, target domain.OrderStatus) (*domain.Order, error)
	AssignDeliveryPartner(ctx context.Context, orderID, partnerID uint64, actor *auth.Principal) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID uint64, target domain.PaymentStatus, actor *auth.Principal) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID uint64, actor *auth.Principal) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter, actor *auth.Principal) ([]domain.Order, error)
}

type OrderController struct {
	createOrder CreateOrderUseCase
	lifecycle   LifecycleService
	logger      *zap.Logger
}

func NewOrderController(createOrder CreateOrderUseCase, lifecycle LifecycleService, logger *zap.Logger) *OrderController {
	return &OrderController{
		createOrder: createOrder,
		lifecycle:   lifecycle,
		logger:      logger,
	}
}

func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	actor, ok := auth.FromContext(r.Context())
	if !ok {
		c.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing principal")
		return
	}

	var req dto.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if req.UserID == 0 {
		req.UserID = actor.UserID
	}
	if actor.Role != domain.RoleAdmin && req.UserID != actor.UserID {
		c.writeError(w, http.StatusForbidden, "FORBIDDEN", "cannot create an order for another user")
		return
	}

	if validationErr := validateCreateOrderRequest(req); validationErr != nil {
		ve, _ := apperrors.IsValidationError(validationErr)
		c.writeValidationError(w, ve.Message, ve.Details...)
		return
	}

	order, err := c.createOrder.CreateOrder(r.Context(), req.UserID, req.Items, req.Address, req.PaymentMethod)
	if err != nil {
		c.handleError(w, err, logger)
		return
	}

	c.writeJSON(w, http.StatusCreated, dto.ToOrderDTO(order))
}

func (c *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", uuid.New().String()))

	actor, ok := auth.FromContext(r.Context())
	if !ok {
		c.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing principal")
		return
	}

	orderID, err := parseOrderID(r)
	if err != nil {
		c.writeValidationError(w, "invalid orderId", apperrors.ValidationDetail{
			Field:   "orderId",
			Message: "orderId must be a positive integer",
		})
		return
	}

	var req dto.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	target, err := domain.ToOrderStatus(req.Status)
	if err != nil {
		c.writeValidationError(w, "invalid status", apperrors.ValidationDetail{
			Field:   "status",
			Message: "status must be one of pending, preparing, packed, out_for_delivery, delivered, cancelled",
		})
		return
	}

	order, err := c.lifecycle.RequestTransition(r.Context(), orderID, actor, target)
	if err != nil {
		c.handleError(w, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.ToOrderDTO(order))
}

func (c *OrderController) AssignPartner(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", uuid.New().String()))

	actor, ok := auth.FromContext(r.Context())
	if !ok {
		c.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing principal")
		return
	}

	orderID, err := parseOrderID(r)
	if err != nil {
		c.writeValidationError(w, "invalid orderId", apperrors.ValidationDetail{
			Field:   "orderId",
			Message: "orderId must be a positive integer",
		})
		return
	}

	var req dto.AssignPartnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeliveryPartnerID == 0 {
		c.writeValidationError(w, "invalid request", apperrors.ValidationDetail{
			Field:   "deliveryPartnerId",
			Message: "deliveryPartnerId must be a positive integer",
		})
		return
	}

	order, err := c.lifecycle.AssignDeliveryPartner(r.Context(), orderID, req.DeliveryPartnerID, actor)
	if err != nil {
		c.handleError(w, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.ToOrderDTO(order))
}

func (c *OrderController) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", uuid.New().String()))

	actor, ok := auth.FromContext(r.Context())
	if !ok {
		c.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing principal")
		return
	}

	orderID, err := parseOrderID(r)
	if err != nil {
		c.writeValidationError(w, "invalid orderId", apperrors.ValidationDetail{
			Field:   "orderId",
			Message: "orderId must be a positive integer",
		})
		return
	}

	var req dto.UpdatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	target, err := domain.ToPaymentStatus(req.PaymentStatus)
	if err != nil {
		c.writeValidationError(w, "invalid payment status", apperrors.ValidationDetail{
			Field:   "paymentStatus",
			Message: "paymentStatus must be one of pending, paid, failed",
		})
		return
	}

	order, err := c.lifecycle.UpdatePaymentStatus(r.Context(), orderID, target, actor)
	if err != nil {
		c.handleError(w, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.ToOrderDTO(order))
}

func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", uuid.New().String()))

	actor, ok := auth.FromContext(r.Context())
	if !ok {
		c.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing principal")
		return
	}

	orderID, err := parseOrderID(r)
	if err != nil {
		c.writeValidationError(w, "invalid orderId", apperrors.ValidationDetail{
			Field:   "orderId",
			Message: "orderId must be a positive integer",
		})
		return
	}

	order, err := c.lifecycle.GetOrder(r.Context(), orderID, actor)
	if err != nil {
		c.handleError(w, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.ToOrderDTO(order))
}

func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", uuid.New().String()))

	actor, ok := auth.FromContext(r.Context())
	if !ok {
		c.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing principal")
		return
	}

	var filter domain.OrderFilter
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := domain.ToOrderStatus(s)
		if err != nil {
			c.writeValidationError(w, "invalid status filter", apperrors.ValidationDetail{
				Field:   "status",
				Message: "unknown status value",
			})
			return
		}
		filter.Statuses = []domain.OrderStatus{status}
	}
	if s := r.URL.Query().Get("userId"); s != "" {
		userID, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			c.writeValidationError(w, "invalid userId filter", apperrors.ValidationDetail{
				Field:   "userId",
				Message: "userId must be a positive integer",
			})
			return
		}
		filter.UserIDs = []uint64{userID}
	}

	orders, err := c.lifecycle.ListOrders(r.Context(), filter, actor)
	if err != nil {
		c.handleError(w, err, logger)
		return
	}

	dtos := lo.Map(orders, func(o domain.Order, _ int) dto.OrderDTO {
		return dto.ToOrderDTO(&o)
	})
	c.writeJSON(w, http.StatusOK, map[string]any{"orders": dtos, "count": len(dtos)})
}

func validateCreateOrderRequest(req dto.CreateOrderRequest) error {
	var details []apperrors.ValidationDetail

	if len(req.Items) == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: "items must not be empty",
		})
	}
	if len(req.Items) > 100 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: "items exceeds maximum of 100",
		})
	}

	seen := make(map[uint64]bool)
	for idx, item := range req.Items {
		if item.ProductID == 0 {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].productId",
				Message: "each productId must be a positive integer",
			})
		}
		if seen[item.ProductID] {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].productId",
				Message: "productId must not be duplicated",
			})
		}
		seen[item.ProductID] = true

		if item.Quantity < 1 || item.Quantity > 10000 {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].quantity",
				Message: "quantity must be between 1 and 10000",
			})
		}
	}

	if req.Address == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "address",
			Message: "address is required",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}

func parseOrderID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "orderId"), 10, 64)
}

func (c *OrderController) handleError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeValidationError(w, ve.Message, ve.Details...)
		return
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	if _, ok := apperrors.IsForbiddenError(err); ok {
		c.writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
		return
	}
	if _, ok := apperrors.IsInvalidTransitionError(err); ok {
		c.writeError(w, http.StatusBadRequest, "INVALID_TRANSITION", err.Error())
		return
	}
	if _, ok := apperrors.IsInvalidStateError(err); ok {
		c.writeError(w, http.StatusBadRequest, "INVALID_STATE", err.Error())
		return
	}
	if _, ok := apperrors.IsInsufficientStockError(err); ok {
		c.writeError(w, http.StatusBadRequest, "INSUFFICIENT_STOCK", err.Error())
		return
	}
	if _, ok := apperrors.IsProductUnavailableError(err); ok {
		c.writeError(w, http.StatusBadRequest, "PRODUCT_UNAVAILABLE", err.Error())
		return
	}
	if _, ok := apperrors.IsConflictError(err); ok {
		c.writeError(w, http.StatusConflict, "CONFLICT", err.Error())
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
}

type errorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (c *OrderController) writeError(w http.ResponseWriter, status int, code, message string) {
	c.writeJSON(w, status, errorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *OrderController) writeValidationError(w http.ResponseWriter, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *OrderController) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
