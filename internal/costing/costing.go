// Package costing implements the weighted-average cost basis engine. All
// functions are pure: they take current product state and a movement and
// return the new state, leaving persistence to the caller's transaction.
package costing

import "github.com/shopspring/decimal"

// Fixed-point scales used consistently across the system. Stock quantities
// are stored to 3 decimal places, per-base-unit costs to 4, money to 2.
const (
	StockScale = 3
	CostScale  = 4
	MoneyScale = 2
)

// RoundStock rounds a base-unit quantity to the stock scale.
func RoundStock(q decimal.Decimal) decimal.Decimal {
	return q.Round(StockScale)
}

// RoundCost rounds a per-base-unit cost to the cost scale.
func RoundCost(c decimal.Decimal) decimal.Decimal {
	return c.Round(CostScale)
}

// RoundMoney rounds a monetary amount to the money scale.
func RoundMoney(m decimal.Decimal) decimal.Decimal {
	return m.Round(MoneyScale)
}

// ToBaseQty converts a quantity expressed in a variant unit into base units.
func ToBaseQty(qty, conversionToBase decimal.Decimal) decimal.Decimal {
	return RoundStock(qty.Mul(conversionToBase))
}

// ToBaseUnitPrice converts a per-variant-unit price into a per-base-unit
// price.
func ToBaseUnitPrice(price, conversionToBase decimal.Decimal) decimal.Decimal {
	return RoundCost(price.Div(conversionToBase))
}

// ApplyIncoming applies an incoming stock movement (purchase, restocked
// return, cancelled exchange) and recomputes the moving weighted-average
// cost:
//
//	newAvgCost = (stock*avgCost + qty*unitCost) / (stock + qty)
//
// When the resulting stock is zero or less the incoming unit cost is used
// directly. The result is never negative.
func ApplyIncoming(stock, avgCost, qtyBase, unitCostBase decimal.Decimal) (newStock, newAvgCost decimal.Decimal) {
	newStock = RoundStock(stock.Add(qtyBase))
	if newStock.IsPositive() {
		value := stock.Mul(avgCost).Add(qtyBase.Mul(unitCostBase))
		newAvgCost = RoundCost(value.Div(newStock))
	} else {
		newAvgCost = RoundCost(unitCostBase)
	}
	if newAvgCost.IsNegative() {
		newAvgCost = decimal.Zero
	}
	return newStock, newAvgCost
}

// RevertIncoming undoes a previously applied incoming movement. The item's
// original base quantity and per-base-unit cost are subtracted from the
// inventory value; when the remaining stock is zero or negative the stored
// costBefore anchor is restored instead of dividing near zero. A negative
// result from rounding drift is clamped to zero.
func RevertIncoming(stock, avgCost, qtyBase, unitCostBase, costBefore decimal.Decimal) (newStock, newAvgCost decimal.Decimal) {
	newStock = RoundStock(stock.Sub(qtyBase))
	if newStock.IsPositive() {
		remaining := stock.Mul(avgCost).Sub(qtyBase.Mul(unitCostBase))
		newAvgCost = RoundCost(remaining.Div(newStock))
	} else {
		newAvgCost = RoundCost(costBefore)
	}
	if newAvgCost.IsNegative() {
		newAvgCost = decimal.Zero
	}
	return newStock, newAvgCost
}

// CanIssue reports whether an outgoing movement of qtyBase can be satisfied
// by the current stock. Outgoing movements never change the average cost;
// cost basis is a property of acquisition, not disposal.
func CanIssue(stock, qtyBase decimal.Decimal) bool {
	return stock.GreaterThanOrEqual(qtyBase)
}
