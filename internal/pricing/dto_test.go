package pricing

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
)

func TestPriceModelResponseCarriesDecimalAmounts(t *testing.T) {
	t.Parallel()

	model := &models.StorePriceModel{
		StoreID:    uuid.New(),
		PriceModel: enums.PriceModelGradualWholesale,
		GradualTiers: models.GradualTierSet{
			{Enabled: true, MinQty: 10, UnitPriceCents: 950, Label: "Atacado"},
		},
		MinPurchaseEnabled:     true,
		MinPurchaseAmountCents: 5000,
	}

	out, err := json.Marshal(NewPriceModelResponse(model))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(out)
	if !strings.Contains(body, `"min_purchase_amount":"50.00"`) {
		t.Fatalf("expected decimal min purchase amount, got %s", body)
	}
	if !strings.Contains(body, `"unit_price":"9.50"`) {
		t.Fatalf("expected decimal tier price, got %s", body)
	}
}

func TestQuoteResponseCarriesDecimalAmounts(t *testing.T) {
	t.Parallel()

	quote := &Quote{
		UnitPriceCents: 900,
		TierLabel:      "Wholesale",
		SavingsCents:   1500,
		NextTierHint: &TierHint{
			QuantityNeeded:        5,
			PotentialSavingsCents: 250,
		},
	}

	out, err := json.Marshal(NewQuoteResponse(quote))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(out)
	if !strings.Contains(body, `"unit_price":"9.00"`) {
		t.Fatalf("expected decimal unit price, got %s", body)
	}
	if !strings.Contains(body, `"savings":"15.00"`) {
		t.Fatalf("expected decimal savings, got %s", body)
	}
	if !strings.Contains(body, `"potential_savings":"2.50"`) {
		t.Fatalf("expected decimal hint savings, got %s", body)
	}
}
