package services

import (
	"github.com/shopspring/decimal"

	"storefront/models"
)

// minorUnitExponent is the number of decimal places of the settlement currency.
const minorUnitExponent = 2

// toMinorUnits converts a major-unit amount to integer minor units, rounding
// half away from zero.
func toMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(minorUnitExponent).Round(0).IntPart()
}

// fromMinorUnits converts integer minor units back to a major-unit amount.
func fromMinorUnits(minor int64) float64 {
	f, _ := decimal.New(minor, -minorUnitExponent).Float64()
	return f
}

// orderTotalMinorUnits is the sum of the line-item snapshots plus delivery.
func orderTotalMinorUnits(items []models.LineItem, deliveryMinor int64) int64 {
	total := decimal.NewFromInt(deliveryMinor)
	for _, item := range items {
		unit := decimal.NewFromInt(toMinorUnits(item.UnitPrice))
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.IntPart()
}
