package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vitrinehub/storefront-backend/api/responses"
	"github.com/vitrinehub/storefront-backend/api/validators"
	"github.com/vitrinehub/storefront-backend/internal/webhooks"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
	pkgerrors "github.com/vitrinehub/storefront-backend/pkg/errors"
	"github.com/vitrinehub/storefront-backend/pkg/logger"
)

type paymentWebhookRequest struct {
	EventID           string  `json:"event_id" validate:"required,max=120"`
	OrderID           *string `json:"order_id" validate:"omitempty,uuid"`
	ExternalReference *string `json:"external_reference" validate:"omitempty,max=120"`
	Status            string  `json:"status" validate:"required"`
}

// PaymentWebhook ingests normalized payment notifications. Unknown statuses
// and duplicates are acknowledged with 200 so the provider stops retrying.
func PaymentWebhook(processor *webhooks.PaymentProcessor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body paymentWebhookRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// statuses outside the known set flow through to the processor's
		// ignored branch; 4xx is reserved for malformed envelopes
		status, err := enums.ParsePaymentStatus(body.Status)
		if err != nil {
			status = enums.PaymentStatus(body.Status)
		}

		event := webhooks.PaymentEvent{
			EventID:           body.EventID,
			ExternalReference: body.ExternalReference,
			Status:            status,
		}
		if body.OrderID != nil {
			orderID, err := uuid.Parse(*body.OrderID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
				return
			}
			event.OrderID = &orderID
		}

		outcome, err := processor.Process(r.Context(), event)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"outcome": string(outcome)})
	}
}
