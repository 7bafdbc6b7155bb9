// Package measure normalizes recipe quantities into ingredient stock
// units. Conversions are keyed by the ingredient's category, never by
// its name.
package measure

import (
	"github.com/quanviet-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Canonical unit symbols accepted by the resolver.
const (
	UnitGram      = "g"
	UnitKilogram  = "kg"
	UnitMillilitr = "ml"
	UnitLitre     = "l"
	UnitPiece     = "pcs"
)

type unitPair struct {
	from string
	to   string
}

var thousand = decimal.NewFromInt(1000)

// Fixed ratio tables per category. Each entry is the multiplier that
// takes a quantity in `from` units to `to` units.
var solidRatios = map[unitPair]decimal.Decimal{
	{UnitKilogram, UnitGram}: thousand,
	{UnitGram, UnitKilogram}: decimal.NewFromInt(1).Div(thousand),
}

var liquidRatios = map[unitPair]decimal.Decimal{
	{UnitLitre, UnitMillilitr}: thousand,
	{UnitMillilitr, UnitLitre}: decimal.NewFromInt(1).Div(thousand),
}

// Convert normalizes qty from one unit into another for an ingredient
// of the given category. Equal units are a no-op. When no known ratio
// applies the quantity is returned unconverted — an explicit fallback,
// not an error, so a misconfigured recipe degrades to a precision risk
// rather than a hard failure.
//
// Convert is pure and safe for concurrent use.
func Convert(qty decimal.Decimal, fromUnit, toUnit, category string) decimal.Decimal {
	if fromUnit == toUnit {
		return qty
	}

	var ratios map[unitPair]decimal.Decimal
	switch category {
	case enum.IngredientCategorySolid:
		ratios = solidRatios
	case enum.IngredientCategoryLiquid:
		ratios = liquidRatios
	case enum.IngredientCategoryCounted:
		// Counted ingredients have no sub-units.
		return qty
	default:
		return qty
	}

	if ratio, ok := ratios[unitPair{fromUnit, toUnit}]; ok {
		return qty.Mul(ratio)
	}
	return qty
}

// KnownUnit reports whether the symbol is one the resolver recognizes.
// Handlers use it to validate recipe input early.
func KnownUnit(unit string) bool {
	switch unit {
	case UnitGram, UnitKilogram, UnitMillilitr, UnitLitre, UnitPiece:
		return true
	}
	return false
}
