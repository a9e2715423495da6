package spread

import (
	"math"
	"math/rand"
	"testing"

	"arbengine/internal/models"
)

func book(bids, asks [][2]float64) *models.Orderbook {
	ob := models.NewOrderbook()
	for _, lvl := range bids {
		ob.InsertLevel(models.SideBid, lvl[0], lvl[1])
	}
	for _, lvl := range asks {
		ob.InsertLevel(models.SideAsk, lvl[0], lvl[1])
	}
	return ob
}

// TestCalculate_EntryOnCleanCross: A's bid clearly exceeds B's ask, so the
// calculator must report AOverB at the exact percentage gap.
func TestCalculate_EntryOnCleanCross(t *testing.T) {
	a := book([][2]float64{{100.00, 1}}, [][2]float64{{100.10, 1}})
	b := book([][2]float64{{99.70, 1}}, [][2]float64{{99.80, 1}})

	result, ok := Calculate(a, b)
	if !ok {
		t.Fatal("expected a result")
	}
	if result.Direction != models.DirectionAOverB {
		t.Fatalf("direction = %v, want AOverB", result.Direction)
	}
	want := (100.00 - 99.80) / 99.80 * 100
	if math.Abs(result.Magnitude-want) > 1e-9 {
		t.Errorf("magnitude = %v, want %v", result.Magnitude, want)
	}
}

// TestCalculate_NoEntryBelowThreshold: a sub-threshold gap must never
// qualify as an entry.
func TestCalculate_NoEntryBelowThreshold(t *testing.T) {
	a := book([][2]float64{{100.00, 1}}, [][2]float64{{100.10, 1}})
	b := book([][2]float64{{99.65, 1}}, [][2]float64{{99.95, 1}})

	result, ok := Calculate(a, b)
	if !ok {
		t.Fatal("expected a result")
	}
	const entryThreshold = 0.15
	if result.Magnitude >= entryThreshold {
		t.Fatalf("magnitude %v should be below the %v threshold", result.Magnitude, entryThreshold)
	}
}

func TestCalculate_MissingTopReturnsNotOK(t *testing.T) {
	a := models.NewOrderbook()
	b := book([][2]float64{{99.70, 1}}, [][2]float64{{99.80, 1}})
	if _, ok := Calculate(a, b); ok {
		t.Fatal("expected ok=false when a side's top is missing")
	}
}

// TestExitSpread_Convergence: after an AOverB entry, the exit spread is
// computed from A's ask against B's bid and stays below the exit
// threshold until the books genuinely converge.
func TestExitSpread_Convergence(t *testing.T) {
	a := book(nil, [][2]float64{{99.95, 1}})
	b := book([][2]float64{{99.93, 1}}, nil)

	pct, ok := ExitSpread(models.DirectionAOverB, a, b)
	if !ok {
		t.Fatal("expected a result")
	}
	want := (99.95 - 99.93) / 99.93 * 100
	if math.Abs(pct-want) > 1e-9 {
		t.Errorf("exit spread = %v, want %v", pct, want)
	}
	const exitThreshold = 0.05
	if pct >= exitThreshold {
		t.Fatalf("exit spread %v should be below threshold %v at this tick", pct, exitThreshold)
	}
}

func TestExitSpread_UnknownDirection(t *testing.T) {
	a := book([][2]float64{{100, 1}}, [][2]float64{{100.1, 1}})
	b := book([][2]float64{{99.9, 1}}, [][2]float64{{100, 1}})
	if _, ok := ExitSpread(models.DirectionNone, a, b); ok {
		t.Fatal("expected ok=false for DirectionNone")
	}
}

func TestCalculateVWAP_InsufficientDepth(t *testing.T) {
	a := book([][2]float64{{100, 1}}, [][2]float64{{100.1, 1}})
	b := book([][2]float64{{99.9, 1}}, [][2]float64{{100, 1}})
	if _, ok := CalculateVWAP(a, b, 10); ok {
		t.Fatal("expected insufficient-depth failure")
	}
}

func TestCalculateVWAP_ConsumesDepth(t *testing.T) {
	a := book(
		[][2]float64{{100.0, 1}, {99.9, 1}},
		[][2]float64{{100.2, 1}, {100.3, 1}},
	)
	b := book(
		[][2]float64{{99.5, 1}, {99.4, 1}},
		[][2]float64{{99.6, 1}, {99.7, 1}},
	)

	result, ok := CalculateVWAP(a, b, 2)
	if !ok {
		t.Fatal("expected sufficient depth on both sides")
	}
	if result.Magnitude <= 0 {
		t.Errorf("expected a positive spread, got %v", result.Magnitude)
	}
}

// TestCalculate_DirectionMatchesSign is a property test: the reported
// direction must match which side's bid genuinely exceeds the other's ask,
// across randomly generated non-crossed book pairs.
func TestCalculate_DirectionMatchesSign(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		aBid := 95 + rng.Float64()*10
		aAsk := aBid + 0.01 + rng.Float64()*0.5
		bBid := 95 + rng.Float64()*10
		bAsk := bBid + 0.01 + rng.Float64()*0.5

		a := book([][2]float64{{aBid, 1}}, [][2]float64{{aAsk, 1}})
		b := book([][2]float64{{bBid, 1}}, [][2]float64{{bAsk, 1}})

		result, ok := Calculate(a, b)
		if !ok {
			t.Fatalf("iteration %d: expected ok=true", i)
		}

		switch result.Direction {
		case models.DirectionAOverB:
			if result.Magnitude > 0 && !(aBid > bAsk) {
				t.Fatalf("iteration %d: reported AOverB with positive magnitude but bid(A)=%v !> ask(B)=%v", i, aBid, bAsk)
			}
		case models.DirectionBOverA:
			if result.Magnitude > 0 && !(bBid > aAsk) {
				t.Fatalf("iteration %d: reported BOverA with positive magnitude but bid(B)=%v !> ask(A)=%v", i, bBid, aAsk)
			}
		}
	}
}
