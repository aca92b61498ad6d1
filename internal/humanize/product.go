package humanize

import (
	"encoding/json"
	"fmt"

	"github.com/opsdesk/opsdesk/internal/types"
)

type productStrategy struct{}

var productFields = []fieldSpec[types.ProductSnapshot]{
	{"name", func(field string, x, y types.ProductSnapshot, b *Builder) {
		b.Str(field, x.Name, y.Name, renameClause("name"))
	}},
	{"sku", func(field string, x, y types.ProductSnapshot, b *Builder) {
		b.Str(field, x.SKU, y.SKU, changeClause("SKU"))
	}},
	{"description", func(field string, x, y types.ProductSnapshot, b *Builder) {
		b.Str(field, x.Description, y.Description, changeClause("description"))
	}},
	{"price_cents", func(field string, x, y types.ProductSnapshot, b *Builder) {
		currency := y.Currency
		if currency == "" {
			currency = x.Currency
		}
		b.Int(field, x.PriceCents, y.PriceCents, priceClause(currency))
	}},
	{"currency", func(field string, x, y types.ProductSnapshot, b *Builder) {
		b.Str(field, x.Currency, y.Currency, changeClause("currency"))
	}},
	{"tags", func(field string, x, y types.ProductSnapshot, b *Builder) {
		b.Set(field, x.Tags, y.Tags, "tag")
	}},
	{"active", func(field string, x, y types.ProductSnapshot, b *Builder) {
		b.Bool(field, x.Active, y.Active, toggleClause("activated", "deactivated"))
	}},
}

func priceClause(currency string) func(before, after int64) string {
	format := func(cents int64) string {
		if currency == "" {
			return fmt.Sprintf("%d.%02d", cents/100, cents%100)
		}
		return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, currency)
	}
	return func(before, after int64) string {
		return fmt.Sprintf("price changed %s → %s", format(before), format(after))
	}
}

func (productStrategy) noun() string { return "Product" }

func (productStrategy) diff(before, after json.RawMessage, b *Builder) {
	runFields(productFields, before, after, b)
}

func (productStrategy) entityName(before, after json.RawMessage) string {
	if s := decodeSnapshot[types.ProductSnapshot](after); s.Name != "" {
		return s.Name
	}
	return decodeSnapshot[types.ProductSnapshot](before).Name
}
