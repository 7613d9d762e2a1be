package handlers

import (
	"net/http"
	"order_manager/internal/models"
	"order_manager/internal/repository"
	"order_manager/internal/services"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

type orderDetailResponse struct {
	ID          uint   `json:"id"`
	ProductID   uint   `json:"product_id"`
	VariantName string `json:"variant_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

type orderResponse struct {
	ID              uint                  `json:"id"`
	TicketNumber    string                `json:"ticket_number"`
	ClientID        *uuid.UUID            `json:"client_id"`
	ClientName      string                `json:"client_name"`
	Phone           string                `json:"phone"`
	DeliveryAddress string                `json:"delivery_address"`
	Status          models.OrderStatus    `json:"status"`
	PaymentMethod   models.PaymentMethod  `json:"payment_method"`
	PaymentStatus   models.PaymentStatus  `json:"payment_status"`
	Notes           *string               `json:"notes"`
	Total           string                `json:"total"`
	Details         []orderDetailResponse `json:"details"`
	CreatedAt       time.Time             `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	details := make([]orderDetailResponse, 0, len(order.Details))
	for _, d := range order.Details {
		details = append(details, orderDetailResponse{
			ID:          d.ID,
			ProductID:   d.ProductID,
			VariantName: d.VariantName,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice.StringFixed(2),
			Subtotal:    d.Subtotal.StringFixed(2),
		})
	}
	return orderResponse{
		ID:              order.ID,
		TicketNumber:    order.TicketNumber,
		ClientID:        order.ClientID,
		ClientName:      order.ClientName,
		Phone:           order.Phone,
		DeliveryAddress: order.DeliveryAddress,
		Status:          order.Status,
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		Notes:           order.Notes,
		Total:           order.Total.StringFixed(2),
		Details:         details,
		CreatedAt:       order.CreatedAt,
	}
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	var filter repository.OrderFilter
	if status := c.Query("status"); status != "" {
		s := models.OrderStatus(status)
		filter.Status = &s
	}
	if paymentStatus := c.Query("payment_status"); paymentStatus != "" {
		ps := models.PaymentStatus(paymentStatus)
		filter.PaymentStatus = &ps
	}
	for name, dest := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if raw := c.Query(name); raw != "" {
			value, err := strconv.Atoi(raw)
			if err != nil {
				respondBadRequest(c, "invalid "+name)
				return
			}
			*dest = value
		}
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]orderResponse, 0, len(orders))
	for i := range orders {
		response = append(response, newOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, response)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newOrderResponse(order))
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req services.OrderPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.orderService.DeleteOrder(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
