package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LinePrice prices a line from its MRP, GST percent and discount percent.
// The discount applies to the GST-inclusive amount.
func LinePrice(mrp, quantity, gstPercent, discountPercent decimal.Decimal) decimal.Decimal {
	base := mrp.Mul(quantity)
	gst := base.Mul(gstPercent).Div(hundred)
	discount := base.Add(gst).Mul(discountPercent).Div(hundred)
	return Round2(base.Add(gst).Sub(discount))
}

func (it LineItem) repriced(quantity decimal.Decimal) LineItem {
	it.Quantity = quantity
	it.Price = LinePrice(it.MRPPrice, quantity, it.GSTPercent, it.Discount)
	return it
}

// MergeOrAppend adds newItem to the bill. A line with the same code absorbs the new
// quantity and is repriced; otherwise newItem is appended under a fresh identifier.
// The quantity must already be capped to available stock by the caller.
func MergeOrAppend(items []LineItem, newItem LineItem) ([]LineItem, error) {
	if !newItem.Quantity.IsPositive() {
		return nil, newError(InvalidQuantity, "quantity["+newItem.Code+"]", newItem.Quantity)
	}
	out := make([]LineItem, len(items), len(items)+1)
	copy(out, items)
	for i, existing := range out {
		if existing.Code == newItem.Code {
			out[i] = existing.repriced(existing.Quantity.Add(newItem.Quantity))
			return out, nil
		}
	}
	newItem.ID = uuid.NewString()
	return append(out, newItem.repriced(newItem.Quantity)), nil
}

// FindByCode returns the line holding code, if any.
func FindByCode(items []LineItem, code string) (LineItem, bool) {
	for _, it := range items {
		if it.Code == code {
			return it, true
		}
	}
	return LineItem{}, false
}

func indexOf(items []LineItem, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// RemoveLine drops the line with the given identifier. ok is false when no line matched.
func RemoveLine(items []LineItem, id string) (out []LineItem, ok bool) {
	i := indexOf(items, id)
	if i < 0 {
		return items, false
	}
	out = make([]LineItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...), true
}

// SetQuantity replaces the quantity of a line and reprices it.
func SetQuantity(items []LineItem, id string, quantity decimal.Decimal) (out []LineItem, ok bool, err error) {
	if !quantity.IsPositive() {
		return nil, false, newError(InvalidQuantity, "quantity", quantity)
	}
	i := indexOf(items, id)
	if i < 0 {
		return items, false, nil
	}
	out = make([]LineItem, len(items))
	copy(out, items)
	out[i] = out[i].repriced(quantity)
	return out, true, nil
}
