package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vitrinehub/storefront-backend/api/responses"
	"github.com/vitrinehub/storefront-backend/api/validators"
	internalorders "github.com/vitrinehub/storefront-backend/internal/orders"
	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	pkgerrors "github.com/vitrinehub/storefront-backend/pkg/errors"
	"github.com/vitrinehub/storefront-backend/pkg/logger"
	"github.com/vitrinehub/storefront-backend/pkg/pagination"
)

type createOrderItemRequest struct {
	ProductID   string  `json:"product_id" validate:"required,uuid"`
	VariationID *string `json:"variation_id" validate:"omitempty,uuid"`
	Qty         int     `json:"qty" validate:"required,min=1"`
}

type createOrderRequest struct {
	CustomerName      string                   `json:"customer_name" validate:"required,max=200"`
	CustomerEmail     *string                  `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone     *string                  `json:"customer_phone" validate:"omitempty,max=30"`
	ExternalReference *string                  `json:"external_reference" validate:"omitempty,max=120"`
	Items             []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=300"`
}

// OrderCreate handles checkout: it prices the cart, creates the order and
// reserves stock in one shot.
func OrderCreate(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildCreateOrderInput(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateOrder(r.Context(), storeID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, internalorders.NewOrderResponse(order))
	}
}

// OrderGet returns one order scoped to the store in the path.
func OrderGet(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), storeID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderResponse(order))
	}
}

// OrderList returns a cursored page of the store's orders, newest first.
func OrderList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		rows, nextCursor, err := svc.ListOrders(r.Context(), storeID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderPage(rows, nextCursor))
	}
}

type orderCanceller interface {
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
}

// OrderCancel cancels a pending order and releases its reservation. The order
// is loaded store-scoped first so one tenant cannot cancel another's order.
func OrderCancel(svc internalorders.Service, settlement orderCanceller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cancelOrderRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		reason := strings.TrimSpace(body.Reason)
		if reason == "" {
			reason = "cancelled by store"
		}

		if _, err := svc.GetOrder(r.Context(), storeID, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := settlement.Cancel(r.Context(), orderID, reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderResponse(order))
	}
}

func storeIDParam(r *http.Request) (uuid.UUID, error) {
	return validators.ParseUUIDParam(chi.URLParam(r, "storeID"), "storeID")
}

func buildCreateOrderInput(body createOrderRequest) (internalorders.CreateOrderInput, error) {
	input := internalorders.CreateOrderInput{
		CustomerName:      body.CustomerName,
		CustomerEmail:     body.CustomerEmail,
		CustomerPhone:     body.CustomerPhone,
		ExternalReference: body.ExternalReference,
	}
	for _, item := range body.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return internalorders.CreateOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id").WithDetails(map[string]any{
				"product_id": item.ProductID,
			})
		}
		line := internalorders.OrderItemInput{ProductID: productID, Qty: item.Qty}
		if item.VariationID != nil {
			variationID, err := uuid.Parse(*item.VariationID)
			if err != nil {
				return internalorders.CreateOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid variation id").WithDetails(map[string]any{
					"variation_id": *item.VariationID,
				})
			}
			line.VariationID = &variationID
		}
		input.Items = append(input.Items, line)
	}
	return input, nil
}
