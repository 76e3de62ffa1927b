package purchase

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/nmarques/backend-compras/internal/common"
	"github.com/nmarques/backend-compras/internal/money"
)

// SupportedCurrencies is the fixed ISO-4217 set accepted on purchase creation.
var SupportedCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "CNY": {}, "JPY": {}, "GBP": {},
	"INR": {}, "BRL": {}, "AUD": {}, "CAD": {}, "CHF": {},
	"MXN": {}, "KRW": {}, "TRY": {}, "ZAR": {},
}

const (
	maxCartNameLen  = 120
	maxStoreNameLen = 120
	maxItemNameLen  = 180
	maxIdemKeyLen   = 64
)

// Amount accepts a decimal amount encoded as a JSON number or string.
// Parse failures are recorded rather than aborting the whole decode so
// they can surface as a field-level validation message.
type Amount struct {
	Value decimal.Decimal
	Set   bool
	Err   error
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		a.Set = true
		a.Err = fmt.Errorf("not a decimal: %q", s)
		return nil
	}
	a.Value = d
	a.Set = true
	return nil
}

// ItemInput is one raw cart line as submitted by the client. The price may
// arrive under either price or unit_price; price wins when both are present.
type ItemInput struct {
	Name      string `json:"name"`
	Price     Amount `json:"price"`
	UnitPrice Amount `json:"unit_price"`
	Quantity  *int   `json:"quantity"`
}

// CreateInput is the raw create-purchase payload.
type CreateInput struct {
	CartName       string          `json:"cart_name"`
	StoreName      string          `json:"store_name"`
	Currency       string          `json:"currency"`
	Notes          string          `json:"notes"`
	Tags           json.RawMessage `json:"tags"`
	IdempotencyKey string          `json:"idempotency_key"`
	Products       []ItemInput     `json:"products"`
}

// NormalizedItem is a validated cart line. UnitPrice keeps the precision the
// client sent; line totals are computed from it and quantized once.
type NormalizedItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Normalized is a create-purchase payload after validation and normalization.
type Normalized struct {
	CartName       string
	StoreName      string
	Currency       string
	Notes          string
	Tags           []string
	IdempotencyKey string
	Items          []NormalizedItem
}

// Normalize validates the raw payload and produces its canonical form.
// Every offending field yields one entry in the returned validation details;
// the map is keyed by field path (products.N.price for item fields).
func Normalize(in CreateInput, defaultCurrency string) (Normalized, error) {
	fields := map[string]string{}
	out := Normalized{}

	out.CartName = strings.TrimSpace(in.CartName)
	switch {
	case out.CartName == "":
		fields["cart_name"] = "cart_name is required"
	case utf8.RuneCountInString(out.CartName) > maxCartNameLen:
		fields["cart_name"] = fmt.Sprintf("cart_name must be at most %d characters", maxCartNameLen)
	}

	out.StoreName = strings.TrimSpace(in.StoreName)
	if utf8.RuneCountInString(out.StoreName) > maxStoreNameLen {
		fields["store_name"] = fmt.Sprintf("store_name must be at most %d characters", maxStoreNameLen)
	}

	out.Notes = strings.TrimSpace(in.Notes)

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = strings.ToUpper(strings.TrimSpace(defaultCurrency))
		if currency == "" {
			currency = "EUR"
		}
	}
	if _, ok := SupportedCurrencies[currency]; !ok {
		fields["currency"] = "unsupported currency"
	}
	out.Currency = currency

	tags, err := normalizeTags(in.Tags)
	if err != nil {
		fields["tags"] = err.Error()
	}
	out.Tags = tags

	out.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	if len(out.IdempotencyKey) > maxIdemKeyLen {
		fields["idempotency_key"] = fmt.Sprintf("idempotency_key must be at most %d characters", maxIdemKeyLen)
	}

	if len(in.Products) == 0 {
		fields["products"] = "at least one item required"
	}
	out.Items = make([]NormalizedItem, 0, len(in.Products))
	for i, raw := range in.Products {
		item, itemFields := normalizeItem(raw)
		for field, msg := range itemFields {
			fields[fmt.Sprintf("products.%d.%s", i, field)] = msg
		}
		if len(itemFields) == 0 {
			out.Items = append(out.Items, item)
		}
	}

	if len(fields) > 0 {
		return Normalized{}, validationError(fields)
	}
	return out, nil
}

func normalizeItem(in ItemInput) (NormalizedItem, map[string]string) {
	fields := map[string]string{}
	item := NormalizedItem{Name: strings.TrimSpace(in.Name)}

	switch {
	case item.Name == "":
		fields["name"] = "name is required"
	case utf8.RuneCountInString(item.Name) > maxItemNameLen:
		fields["name"] = fmt.Sprintf("name must be at most %d characters", maxItemNameLen)
	}

	price := in.Price
	if !price.Set {
		price = in.UnitPrice
	}
	switch {
	case !price.Set:
		fields["price"] = "either price or unit_price required"
	case price.Err != nil:
		fields["price"] = "price must be a decimal amount"
	case price.Value.IsNegative():
		fields["price"] = "price must not be negative"
	default:
		item.UnitPrice = price.Value
	}

	switch {
	case in.Quantity == nil:
		fields["quantity"] = "quantity is required"
	case *in.Quantity < 1:
		fields["quantity"] = "quantity must be at least 1"
	default:
		item.Quantity = *in.Quantity
	}

	return item, fields
}

// normalizeTags accepts either a JSON array of strings or one comma-separated
// string. Entries are trimmed and empties dropped; the original order is kept.
func normalizeTags(raw json.RawMessage) ([]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var parts []string
	switch trimmed[0] {
	case '[':
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("tags must be an array of strings")
		}
		parts = list
	case '"':
		var csv string
		if err := json.Unmarshal(raw, &csv); err != nil {
			return nil, fmt.Errorf("tags must be an array of strings or a comma-separated string")
		}
		parts = strings.Split(csv, ",")
	default:
		return nil, fmt.Errorf("tags must be an array of strings or a comma-separated string")
	}
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}

// StoredUnitPrice is the price persisted for an item row, quantized to cents.
func (it NormalizedItem) StoredUnitPrice() decimal.Decimal {
	return money.Round2(it.UnitPrice)
}

func validationError(fields map[string]string) *common.AppError {
	return &common.AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "invalid purchase payload",
		HTTPStatus: http.StatusBadRequest,
		Details:    fields,
	}
}
