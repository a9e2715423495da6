// Package spread computes the directional cross-venue spread from two
// orderbook snapshots and runs the polling task that turns a favorable
// spread into an entry opportunity.
package spread

import (
	"arbengine/internal/models"
	"arbengine/pkg/utils"
)

// Calculate computes the signed spread between books a and b, returning
// whichever direction is larger. ok is false if either book's top is
// missing or a division would be by a non-positive price.
func Calculate(a, b *models.Orderbook) (result models.SpreadResult, ok bool) {
	bidA, hasBidA := a.BestBid()
	askA, hasAskA := a.BestAsk()
	bidB, hasBidB := b.BestBid()
	askB, hasAskB := b.BestAsk()

	if !hasBidA || !hasAskA || !hasBidB || !hasAskB {
		return models.SpreadResult{}, false
	}

	spreadAOverB := utils.CalculateSpread(bidA.Price, askB.Price)
	spreadBOverA := utils.CalculateSpread(bidB.Price, askA.Price)

	result = models.SpreadResult{SpreadAOverB: spreadAOverB, SpreadBOverA: spreadBOverA}

	if spreadAOverB >= spreadBOverA {
		result.Direction = models.DirectionAOverB
		result.Magnitude = spreadAOverB
	} else {
		result.Direction = models.DirectionBOverA
		result.Magnitude = spreadBOverA
	}
	return result, true
}

// ExitSpread computes the spread relevant to closing a position that was
// entered in direction dir, interpreting the books in the opposite sense
// from entry: an AOverB entry (sold A, bought B) exits on
// `(ask(A) - bid(B)) / bid(B) * 100`, and BOverA is the mirror.
func ExitSpread(dir models.SpreadDirection, a, b *models.Orderbook) (pct float64, ok bool) {
	askA, hasAskA := a.BestAsk()
	bidA, hasBidA := a.BestBid()
	askB, hasAskB := b.BestAsk()
	bidB, hasBidB := b.BestBid()

	switch dir {
	case models.DirectionAOverB:
		if !hasAskA || !hasBidB {
			return 0, false
		}
		return utils.CalculateSpread(askA.Price, bidB.Price), true
	case models.DirectionBOverA:
		if !hasAskB || !hasBidA {
			return 0, false
		}
		return utils.CalculateSpread(askB.Price, bidA.Price), true
	default:
		return 0, false
	}
}

// CalculateVWAP is the depth-aware variant: consumes each book to
// targetQty and computes the spread on the resulting VWAPs rather than on
// the raw top-of-book, so the executor can validate a spread at its real
// fill size before firing.
func CalculateVWAP(a, b *models.Orderbook, targetQty float64) (result models.SpreadResult, ok bool) {
	vwapBidA, okBidA := a.DepthQuantity(models.SideBid, targetQty)
	vwapAskB, okAskB := b.DepthQuantity(models.SideAsk, targetQty)
	vwapBidB, okBidB := b.DepthQuantity(models.SideBid, targetQty)
	vwapAskA, okAskA := a.DepthQuantity(models.SideAsk, targetQty)

	if !okBidA || !okAskB || !okBidB || !okAskA {
		return models.SpreadResult{}, false
	}

	spreadAOverB := utils.CalculateSpread(vwapBidA, vwapAskB)
	spreadBOverA := utils.CalculateSpread(vwapBidB, vwapAskA)

	result = models.SpreadResult{SpreadAOverB: spreadAOverB, SpreadBOverA: spreadBOverA}
	if spreadAOverB >= spreadBOverA {
		result.Direction = models.DirectionAOverB
		result.Magnitude = spreadAOverB
	} else {
		result.Direction = models.DirectionBOverA
		result.Magnitude = spreadBOverA
	}
	return result, true
}
