package utils

import "math"

const roundEpsilon = 1e-9

// RoundToLotSize floors value to the nearest multiple of lotSize. A
// non-positive lotSize is treated as "no rounding".
func RoundToLotSize(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	steps := math.Floor(value/lotSize + roundEpsilon)
	return steps * lotSize
}

// RoundToLotSizeUp ceils value to the nearest multiple of lotSize.
func RoundToLotSizeUp(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	steps := math.Ceil(value/lotSize - roundEpsilon)
	return steps * lotSize
}

// RoundToLotSizeNearest rounds value to the nearest multiple of lotSize.
func RoundToLotSizeNearest(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	steps := math.Round(value / lotSize)
	return steps * lotSize
}

// CalculateSpread returns the percentage gap of priceHigh over priceLow.
// A non-positive priceLow yields 0 (undefined spread).
func CalculateSpread(priceHigh, priceLow float64) float64 {
	if priceLow <= 0 {
		return 0
	}
	return (priceHigh - priceLow) / priceLow * 100
}

// CalculateSpreadFromPrices returns the absolute percentage spread between
// two prices regardless of which one is larger.
func CalculateSpreadFromPrices(priceA, priceB float64) float64 {
	if priceA <= 0 || priceB <= 0 {
		return 0
	}
	if priceA >= priceB {
		return CalculateSpread(priceA, priceB)
	}
	return CalculateSpread(priceB, priceA)
}

// CalculateNetSpread deducts round-trip taker fees (charged on both legs,
// on both venues) from a gross spread percentage. feeA/feeB are fractions
// (0.0004 == 0.04%).
func CalculateNetSpread(spreadPct, feeA, feeB float64) float64 {
	return spreadPct - 2*(feeA+feeB)*100
}

// CalculateNetSpreadDirect combines CalculateSpread and CalculateNetSpread
// for the common case of going straight from prices to a fee-adjusted
// spread.
func CalculateNetSpreadDirect(priceHigh, priceLow, feeA, feeB float64) float64 {
	return CalculateNetSpread(CalculateSpread(priceHigh, priceLow), feeA, feeB)
}

// CalculateWeightedAverage computes a volume-weighted average of values,
// ignoring any pair with a non-positive weight. Returns 0 if the inputs
// are empty, mismatched in length, or all weights are non-positive.
func CalculateWeightedAverage(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}
	var sumWeighted, sumWeights float64
	for i, v := range values {
		w := weights[i]
		if w <= 0 {
			continue
		}
		sumWeighted += v * w
		sumWeights += w
	}
	if sumWeights <= 0 {
		return 0
	}
	return sumWeighted / sumWeights
}

// OrderBookLevel is a plain price/volume pair used by the market-impact
// simulators below, independent of the richer models.OrderbookLevel.
type OrderBookLevel struct {
	Price  float64
	Volume float64
}

// SimulateMarketBuy walks asks accumulating volume up to targetVolume and
// returns the resulting average fill price, the volume actually filled,
// and the slippage percentage versus the top-of-book price.
func SimulateMarketBuy(asks []OrderBookLevel, targetVolume float64) (avgPrice, filled, slippagePct float64) {
	return simulateMarketOrder(asks, targetVolume)
}

// SimulateMarketSell walks bids accumulating volume up to targetVolume and
// returns the resulting average fill price, the volume actually filled,
// and the slippage percentage versus the top-of-book price.
func SimulateMarketSell(bids []OrderBookLevel, targetVolume float64) (avgPrice, filled, slippagePct float64) {
	return simulateMarketOrder(bids, targetVolume)
}

func simulateMarketOrder(levels []OrderBookLevel, targetVolume float64) (avgPrice, filled, slippagePct float64) {
	if len(levels) == 0 || targetVolume <= 0 {
		return 0, 0, 0
	}

	basePrice := levels[0].Price
	var notional float64
	for _, lvl := range levels {
		take := lvl.Volume
		remaining := targetVolume - filled
		if take > remaining {
			take = remaining
		}
		notional += take * lvl.Price
		filled += take
		if filled >= targetVolume {
			break
		}
	}

	if filled == 0 {
		return 0, 0, 0
	}

	avgPrice = notional / filled
	if basePrice > 0 {
		slippagePct = (avgPrice - basePrice) / basePrice * 100
	}
	return avgPrice, filled, slippagePct
}

// CalculatePNL returns unrealized PNL for a single leg.
func CalculatePNL(side string, entryPrice, currentPrice, quantity float64) float64 {
	switch side {
	case "long":
		return (currentPrice - entryPrice) * quantity
	case "short":
		return (entryPrice - currentPrice) * quantity
	default:
		return 0
	}
}

// CalculateTotalPNL sums the long and short leg PNL of a delta-neutral
// pair between entry and the current (or exit) prices.
func CalculateTotalPNL(longEntry, longCurrent, shortEntry, shortCurrent, quantity float64) float64 {
	longPNL := CalculatePNL("long", longEntry, longCurrent, quantity)
	shortPNL := CalculatePNL("short", shortEntry, shortCurrent, quantity)
	return longPNL + shortPNL
}

// SplitVolume divides totalVolume into nParts equal, lot-rounded chunks.
// Returns nil if nParts or totalVolume is non-positive.
func SplitVolume(totalVolume float64, nParts int, lotSize float64) []float64 {
	if nParts <= 0 || totalVolume <= 0 {
		return nil
	}
	part := RoundToLotSize(totalVolume/float64(nParts), lotSize)
	parts := make([]float64, nParts)
	for i := range parts {
		parts[i] = part
	}
	return parts
}

// IsSpreadSufficient reports whether spread meets or exceeds the entry
// threshold.
func IsSpreadSufficient(spread, threshold float64) bool {
	return spread >= threshold
}

// ShouldExit reports whether spread has compressed to or below the exit
// threshold.
func ShouldExit(spread, exitThreshold float64) bool {
	return spread <= exitThreshold
}

// IsStopLossHit reports whether pnl has breached a configured stop-loss.
// A stopLoss of 0 or less means the stop-loss is disabled.
func IsStopLossHit(pnl, stopLoss float64) bool {
	if stopLoss <= 0 {
		return false
	}
	return pnl <= -stopLoss
}

// Clamp bounds value to [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
