package pricing

import (
	"testing"

	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
)

func intPtr(v int) *int { return &v }

func TestResolveRetailOnly(t *testing.T) {
	product := models.Product{RetailPriceCents: 1000, WholesalePriceCents: intPtr(800)}
	model := models.StorePriceModel{PriceModel: enums.PriceModelRetailOnly}

	quote := Resolve(product, model, 50, 50)
	if quote.UnitPriceCents != 1000 {
		t.Fatalf("expected retail price, got %d", quote.UnitPriceCents)
	}
	if quote.TierLabel != "Retail" {
		t.Fatalf("expected Retail tier, got %q", quote.TierLabel)
	}
	if quote.SavingsCents != 0 || quote.NextTierHint != nil {
		t.Fatalf("retail only must not surface savings or hints")
	}
}

func TestResolveWholesaleOnlyFallsBackToRetail(t *testing.T) {
	model := models.StorePriceModel{PriceModel: enums.PriceModelWholesaleOnly}

	quote := Resolve(models.Product{RetailPriceCents: 1000, WholesalePriceCents: intPtr(800)}, model, 1, 1)
	if quote.UnitPriceCents != 800 || quote.TierLabel != "Wholesale" {
		t.Fatalf("unexpected quote %+v", quote)
	}
	if quote.SavingsCents != 0 {
		t.Fatalf("wholesale only must not surface savings")
	}

	quote = Resolve(models.Product{RetailPriceCents: 1000}, model, 1, 1)
	if quote.UnitPriceCents != 1000 {
		t.Fatalf("missing wholesale price must degrade to retail, got %d", quote.UnitPriceCents)
	}
}

func TestResolveSimpleWholesaleThreshold(t *testing.T) {
	product := models.Product{
		RetailPriceCents:    1000,
		WholesalePriceCents: intPtr(800),
		MinWholesaleQty:     intPtr(10),
	}
	model := models.StorePriceModel{
		PriceModel:      enums.PriceModelSimpleWholesale,
		SimpleTierLabel: "Wholesale",
	}

	below := Resolve(product, model, 9, 9)
	if below.UnitPriceCents != 1000 || below.TierLabel != "Retail" {
		t.Fatalf("below threshold should quote retail, got %+v", below)
	}
	if below.NextTierHint == nil {
		t.Fatalf("below threshold should carry a next tier hint")
	}
	if below.NextTierHint.QuantityNeeded != 1 {
		t.Fatalf("expected quantityNeeded=1, got %d", below.NextTierHint.QuantityNeeded)
	}
	if below.NextTierHint.PotentialSavingsCents != (1000-800)*9 {
		t.Fatalf("unexpected potential savings %d", below.NextTierHint.PotentialSavingsCents)
	}
	if below.NextTierHint.ByCartTotal {
		t.Fatalf("per-line threshold must not flag by_cart_total")
	}

	at := Resolve(product, model, 10, 10)
	if at.UnitPriceCents != 800 || at.TierLabel != "Wholesale" {
		t.Fatalf("at threshold should quote wholesale, got %+v", at)
	}
	if at.SavingsCents != (1000-800)*10 {
		t.Fatalf("expected savings=2000, got %d", at.SavingsCents)
	}
	if at.NextTierHint != nil {
		t.Fatalf("qualified quote should not carry a hint")
	}
}

func TestResolveSimpleWholesaleByCartTotal(t *testing.T) {
	product := models.Product{RetailPriceCents: 1000, WholesalePriceCents: intPtr(800)}
	model := models.StorePriceModel{
		PriceModel:        enums.PriceModelSimpleWholesale,
		SimpleByCartTotal: true,
		SimpleMinQtyCart:  20,
		SimpleTierLabel:   "Atacado",
	}

	// line of 2 qualifies through the overall cart quantity
	quote := Resolve(product, model, 2, 25)
	if quote.UnitPriceCents != 800 || quote.TierLabel != "Atacado" {
		t.Fatalf("cart total should qualify the line, got %+v", quote)
	}
	if quote.SavingsCents != (1000-800)*2 {
		t.Fatalf("savings must scale by line quantity, got %d", quote.SavingsCents)
	}

	quote = Resolve(product, model, 2, 15)
	if quote.UnitPriceCents != 1000 {
		t.Fatalf("cart below threshold should quote retail, got %+v", quote)
	}
	if quote.NextTierHint == nil || !quote.NextTierHint.ByCartTotal {
		t.Fatalf("cart threshold hint must flag by_cart_total, got %+v", quote.NextTierHint)
	}
	if quote.NextTierHint.QuantityNeeded != 5 {
		t.Fatalf("expected 5 more cart units, got %d", quote.NextTierHint.QuantityNeeded)
	}
}

func TestResolveSimpleWholesaleWithoutWholesalePrice(t *testing.T) {
	product := models.Product{RetailPriceCents: 1000, MinWholesaleQty: intPtr(10)}
	model := models.StorePriceModel{PriceModel: enums.PriceModelSimpleWholesale}

	quote := Resolve(product, model, 50, 50)
	if quote.UnitPriceCents != 1000 || quote.TierLabel != "Retail" {
		t.Fatalf("missing wholesale price must degrade to retail, got %+v", quote)
	}
	if quote.NextTierHint != nil {
		t.Fatalf("no hint without a wholesale price to reach")
	}
}

func gradualTestProduct() models.Product {
	return models.Product{
		RetailPriceCents: 1000,
		Tiers: []models.PriceTier{
			{MinQty: 1, UnitPriceCents: 1000, Label: "Retail"},
			{MinQty: 5, UnitPriceCents: 900, Label: "Atacarejo"},
			{MinQty: 20, UnitPriceCents: 700, Label: "Atacado"},
		},
	}
}

func TestResolveGradualWholesaleSelection(t *testing.T) {
	product := gradualTestProduct()
	model := models.StorePriceModel{PriceModel: enums.PriceModelGradualWholesale}

	quote := Resolve(product, model, 5, 5)
	if quote.UnitPriceCents != 900 || quote.TierLabel != "Atacarejo" {
		t.Fatalf("quantity 5 should earn Atacarejo, got %+v", quote)
	}
	if quote.SavingsCents != (1000-900)*5 {
		t.Fatalf("unexpected savings %d", quote.SavingsCents)
	}
	if quote.NextTierHint == nil {
		t.Fatalf("expected hint toward Atacado")
	}
	if quote.NextTierHint.QuantityNeeded != 15 {
		t.Fatalf("expected 15 more units for Atacado, got %d", quote.NextTierHint.QuantityNeeded)
	}

	quote = Resolve(product, model, 25, 25)
	if quote.UnitPriceCents != 700 || quote.TierLabel != "Atacado" {
		t.Fatalf("quantity 25 should earn Atacado, got %+v", quote)
	}
	if quote.NextTierHint != nil {
		t.Fatalf("top tier must not hint further, got %+v", quote.NextTierHint)
	}
}

func TestResolveGradualWholesaleUsesStoreTiers(t *testing.T) {
	product := models.Product{RetailPriceCents: 1000}
	model := models.StorePriceModel{
		PriceModel: enums.PriceModelGradualWholesale,
		GradualTiers: models.GradualTierSet{
			{Enabled: true, MinQty: 10, UnitPriceCents: 850, Label: "Box"},
			{Enabled: false, MinQty: 50, UnitPriceCents: 600, Label: "Pallet"},
		},
	}

	quote := Resolve(product, model, 4, 4)
	if quote.UnitPriceCents != 1000 || quote.TierLabel != "Retail" {
		t.Fatalf("below first tier should use the implicit retail baseline, got %+v", quote)
	}
	if quote.NextTierHint == nil || quote.NextTierHint.QuantityNeeded != 6 {
		t.Fatalf("expected hint toward Box tier, got %+v", quote.NextTierHint)
	}

	quote = Resolve(product, model, 60, 60)
	if quote.UnitPriceCents != 850 || quote.TierLabel != "Box" {
		t.Fatalf("disabled tiers must be ignored, got %+v", quote)
	}
}

func TestResolveGradualWholesaleMonotonic(t *testing.T) {
	product := gradualTestProduct()
	model := models.StorePriceModel{PriceModel: enums.PriceModelGradualWholesale}

	previous := Resolve(product, model, 1, 1).UnitPriceCents
	for qty := 2; qty <= 60; qty++ {
		current := Resolve(product, model, qty, qty).UnitPriceCents
		if current > previous {
			t.Fatalf("unit price increased from %d to %d at quantity %d", previous, current, qty)
		}
		previous = current
	}
}

func TestResolveUnknownModelFallsBackToRetail(t *testing.T) {
	product := models.Product{RetailPriceCents: 1234, WholesalePriceCents: intPtr(900)}
	model := models.StorePriceModel{PriceModel: enums.PriceModelType("promo_beta")}

	quote := Resolve(product, model, 10, 10)
	if quote.UnitPriceCents != 1234 || quote.TierLabel != "Retail" {
		t.Fatalf("unknown model must quote retail, got %+v", quote)
	}
	if quote.SavingsCents != 0 || quote.NextTierHint != nil {
		t.Fatalf("unknown model must not surface savings or hints")
	}
}
