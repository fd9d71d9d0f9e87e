package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// CurrentPrice returns salePrice when it is set and below price.
func CurrentPrice(price float64, salePrice *float64) float64 {
	if saleApplies(price, salePrice) {
		return *salePrice
	}
	return price
}

// DiscountPercentage is round(100*(price-salePrice)/price) when the sale applies, else 0.
func DiscountPercentage(price float64, salePrice *float64) int {
	if !saleApplies(price, salePrice) || price <= 0 {
		return 0
	}
	pct := decimal.NewFromFloat(price).
		Sub(decimal.NewFromFloat(*salePrice)).
		Div(decimal.NewFromFloat(price)).
		Mul(decimal.NewFromInt(100))
	return int(pct.Round(0).IntPart())
}

func saleApplies(price float64, salePrice *float64) bool {
	return salePrice != nil && *salePrice > 0 && *salePrice < price
}

// ApplyReviewStats recomputes rating and numReviews from the embedded reviews.
// The store calls it right before persisting a review change.
func ApplyReviewStats(p *Product) {
	if len(p.Reviews) == 0 {
		p.Rating = 0
		p.NumReviews = 0
		return
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(p.Reviews))
	p.Rating = math.Round(mean*10) / 10
	p.NumReviews = len(p.Reviews)
}

// ItemsPrice sums price*quantity over the line items, rounded to cents.
func ItemsPrice(items []OrderItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total.Round(2).InexactFloat64()
}

// FinalizeOrderTotals enforces totalPrice == itemsPrice + taxPrice + shippingPrice.
// A zero itemsPrice is recomputed from the line items. The store calls it
// before every order write.
func FinalizeOrderTotals(o *Order) {
	if o.ItemsPrice == 0 {
		o.ItemsPrice = ItemsPrice(o.Items)
	}
	total := decimal.NewFromFloat(o.ItemsPrice).
		Add(decimal.NewFromFloat(o.TaxPrice)).
		Add(decimal.NewFromFloat(o.ShippingPrice))
	o.TotalPrice = total.Round(2).InexactFloat64()
}
