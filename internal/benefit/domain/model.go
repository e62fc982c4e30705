// Package domain holds the redeemable benefit catalog types.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindDiscount    Kind = "DISCOUNT"
	KindFreeProduct Kind = "FREE_PRODUCT"
)

type DiscountKind string

const (
	DiscountPercentage  DiscountKind = "PERCENTAGE"
	DiscountFixedAmount DiscountKind = "FIXED_AMOUNT"
)

// EveryDay matches any weekday.
const EveryDay = "EVERYDAY"

func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToUpper(strings.TrimSpace(value))) {
	case KindDiscount:
		return KindDiscount, true
	case KindFreeProduct:
		return KindFreeProduct, true
	}
	return "", false
}

func ParseDiscountKind(value string) (DiscountKind, bool) {
	switch DiscountKind(strings.ToUpper(strings.TrimSpace(value))) {
	case DiscountPercentage:
		return DiscountPercentage, true
	case DiscountFixedAmount:
		return DiscountFixedAmount, true
	}
	return "", false
}

// Benefit is immutable once created apart from Active.
type Benefit struct {
	ID             snowflake.ID
	Kind           Kind
	PointsRequired int64
	DiscountKind   DiscountKind
	DiscountValue  decimal.Decimal
	ApplicableDays []string
	ProductIDs     []snowflake.ID
	CreatedBy      string
	CreatedAt      time.Time
	Active         bool
}

// AppliesOn reports whether the benefit can be redeemed on day. An empty
// day set never matches.
func (b Benefit) AppliesOn(day time.Weekday) bool {
	name := strings.ToUpper(day.String())
	for _, d := range b.ApplicableDays {
		d = strings.ToUpper(strings.TrimSpace(d))
		if d == EveryDay || d == name {
			return true
		}
	}
	return false
}

// RequiredProductID is the product a free product benefit is redeemed
// against. Only the first listed product counts.
func (b Benefit) RequiredProductID() (snowflake.ID, bool) {
	if b.Kind != KindFreeProduct || len(b.ProductIDs) == 0 {
		return 0, false
	}
	return b.ProductIDs[0], true
}

func (b Benefit) DisplayText() string {
	var text strings.Builder
	fmt.Fprintf(&text, "%d points for ", b.PointsRequired)
	if b.Kind == KindDiscount {
		if b.DiscountKind == DiscountPercentage {
			fmt.Fprintf(&text, "%s%% discount", b.DiscountValue.String())
		} else {
			fmt.Fprintf(&text, "$%s discount", b.DiscountValue.StringFixed(2))
		}
		return text.String()
	}
	text.WriteString("free product")
	if n := len(b.ProductIDs); n > 0 {
		fmt.Fprintf(&text, " (%d products)", n)
	}
	return text.String()
}

func (b Benefit) Response() BenefitResponse {
	resp := BenefitResponse{
		ID:             b.ID.String(),
		Type:           b.Kind,
		PointsRequired: b.PointsRequired,
		ApplicableDays: b.ApplicableDays,
		ProductIDs:     make([]string, 0, len(b.ProductIDs)),
		CreatedBy:      b.CreatedBy,
		CreatedAt:      b.CreatedAt,
		Active:         b.Active,
		DisplayText:    b.DisplayText(),
	}
	if resp.ApplicableDays == nil {
		resp.ApplicableDays = []string{}
	}
	if b.Kind == KindDiscount {
		value := b.DiscountValue.InexactFloat64()
		resp.DiscountType = b.DiscountKind
		resp.DiscountValue = &value
	}
	for _, id := range b.ProductIDs {
		resp.ProductIDs = append(resp.ProductIDs, id.String())
	}
	return resp
}
