package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vitrinehub/storefront-backend/api/responses"
	"github.com/vitrinehub/storefront-backend/api/validators"
	"github.com/vitrinehub/storefront-backend/internal/pricing"
	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
	pkgerrors "github.com/vitrinehub/storefront-backend/pkg/errors"
	"github.com/vitrinehub/storefront-backend/pkg/logger"
	"github.com/vitrinehub/storefront-backend/pkg/types"
)

type gradualTierRequest struct {
	Enabled   bool        `json:"enabled"`
	MinQty    int         `json:"min_qty" validate:"required,min=1"`
	UnitPrice types.Cents `json:"unit_price" validate:"required,min=1"`
	Label     string      `json:"label" validate:"required,max=60"`
}

type updatePriceModelRequest struct {
	PriceModel             *string               `json:"price_model" validate:"omitempty,oneof=retail_only wholesale_only simple_wholesale gradual_wholesale"`
	SimpleByCartTotal      *bool                 `json:"simple_by_cart_total"`
	SimpleMinQtyPerProduct *int                  `json:"simple_min_qty_per_product" validate:"omitempty,min=1"`
	SimpleMinQtyCart       *int                  `json:"simple_min_qty_cart" validate:"omitempty,min=1"`
	SimpleTierLabel        *string               `json:"simple_tier_label" validate:"omitempty,max=60"`
	GradualTiers           *[]gradualTierRequest `json:"gradual_tiers" validate:"omitempty,max=4,dive"`
	ShowTiers              *bool                 `json:"show_tiers"`
	ShowSavings            *bool                 `json:"show_savings"`
	ShowNextTierHint       *bool                 `json:"show_next_tier_hint"`
	MinPurchaseEnabled     *bool                 `json:"min_purchase_enabled"`
	MinPurchaseAmount      *types.Cents          `json:"min_purchase_amount" validate:"omitempty,min=0"`
	MinPurchaseMessage     *string               `json:"min_purchase_message" validate:"omitempty,max=300"`
}

type priceQuoteRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Qty       int    `json:"qty" validate:"required,min=1"`
	CartQty   int    `json:"cart_qty" validate:"omitempty,min=1"`
}

// PriceModelGet returns the store's pricing configuration, creating the
// retail_only default on first read.
func PriceModelGet(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		model, err := svc.GetOrCreateDefault(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pricing.NewPriceModelResponse(model))
	}
}

// PriceModelUpdate patches the store's pricing configuration. Absent fields
// keep their stored values.
func PriceModelUpdate(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updatePriceModelRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildUpdatePriceModelInput(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		model, err := svc.Update(r.Context(), storeID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pricing.NewPriceModelResponse(model))
	}
}

// PriceQuote resolves the effective unit price for one line under the store's
// current price model. Used by the storefront to render cart prices.
func PriceQuote(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body priceQuoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(body.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}
		cartQty := body.CartQty
		if cartQty < body.Qty {
			cartQty = body.Qty
		}

		quote, err := svc.QuoteLine(r.Context(), storeID, productID, body.Qty, cartQty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pricing.NewQuoteResponse(quote))
	}
}

func buildUpdatePriceModelInput(body updatePriceModelRequest) (pricing.UpdatePriceModelInput, error) {
	input := pricing.UpdatePriceModelInput{
		SimpleByCartTotal:      body.SimpleByCartTotal,
		SimpleMinQtyPerProduct: body.SimpleMinQtyPerProduct,
		SimpleMinQtyCart:       body.SimpleMinQtyCart,
		SimpleTierLabel:        body.SimpleTierLabel,
		ShowTiers:              body.ShowTiers,
		ShowSavings:            body.ShowSavings,
		ShowNextTierHint:       body.ShowNextTierHint,
		MinPurchaseEnabled:     body.MinPurchaseEnabled,
		MinPurchaseMessage:     body.MinPurchaseMessage,
	}
	if body.MinPurchaseAmount != nil {
		amount := body.MinPurchaseAmount.Int()
		input.MinPurchaseAmountCents = &amount
	}
	if body.PriceModel != nil {
		model, err := enums.ParsePriceModelType(*body.PriceModel)
		if err != nil {
			return pricing.UpdatePriceModelInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price model")
		}
		input.PriceModel = &model
	}
	if body.GradualTiers != nil {
		tiers := make(models.GradualTierSet, 0, len(*body.GradualTiers))
		for _, tier := range *body.GradualTiers {
			tiers = append(tiers, models.GradualTier{
				Enabled:        tier.Enabled,
				MinQty:         tier.MinQty,
				UnitPriceCents: tier.UnitPrice.Int(),
				Label:          tier.Label,
			})
		}
		input.GradualTiers = &tiers
	}
	return input, nil
}
