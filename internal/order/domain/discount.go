package domain

import (
	"strings"

	benefitdomain "github.com/messismo/bar/internal/benefit/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountedTotal applies a benefit to price and never returns less than
// zero. requiredProduct is the catalog name of the product a free product
// benefit gives away; when no line item matches it, price is unchanged.
func DiscountedTotal(price decimal.Decimal, benefit benefitdomain.Benefit, items []LineItem, requiredProduct string) decimal.Decimal {
	var total decimal.Decimal
	switch benefit.Kind {
	case benefitdomain.KindDiscount:
		switch benefit.DiscountKind {
		case benefitdomain.DiscountPercentage:
			total = price.Sub(price.Mul(benefit.DiscountValue).Div(hundred))
		case benefitdomain.DiscountFixedAmount:
			total = price.Sub(benefit.DiscountValue)
		default:
			return price
		}
	case benefitdomain.KindFreeProduct:
		item, ok := FindItemByName(items, requiredProduct)
		if !ok {
			return price
		}
		total = price.Sub(item.UnitPrice)
	default:
		return price
	}
	if total.IsNegative() {
		return decimal.Zero
	}
	return total.Round(2)
}

// FindItemByName matches line items by product name, ignoring case and
// surrounding spaces.
func FindItemByName(items []LineItem, name string) (LineItem, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return LineItem{}, false
	}
	for _, item := range items {
		if strings.EqualFold(strings.TrimSpace(item.ProductName), name) {
			return item, true
		}
	}
	return LineItem{}, false
}
