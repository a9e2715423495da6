package venue

import (
	"strconv"

	"arbengine/internal/models"
)

// vestOrderStatus maps vest's textual order status to the core's
// OrderOutcome enum.
func vestOrderStatus(status string) models.OrderOutcome {
	switch status {
	case "Filled":
		return models.OutcomeFilled
	case "PartiallyFilled":
		return models.OutcomePartial
	case "Rejected", "Cancelled":
		return models.OutcomeRejected
	default:
		return models.OutcomeError
	}
}

type vestOrderResponseWire struct {
	OrderID      string `json:"order_id"`
	Status       string `json:"status"`
	FilledQty    string `json:"filled_quantity"`
	AvgFillPrice string `json:"avg_price"`
}

func parseVestOrderResponse(raw []byte) (*models.OrderResponse, error) {
	var wire vestOrderResponseWire
	if err := decodeJSON(raw, &wire); err != nil {
		return nil, err
	}

	filled, _ := strconv.ParseFloat(wire.FilledQty, 64)
	avgPrice, _ := strconv.ParseFloat(wire.AvgFillPrice, 64)

	return &models.OrderResponse{
		OrderID:      wire.OrderID,
		Outcome:      vestOrderStatus(wire.Status),
		FilledQty:    filled,
		AvgFillPrice: avgPrice,
	}, nil
}

type vestPositionWire struct {
	Symbol     string `json:"symbol"`
	EntryPrice string `json:"entry_price"`
	Size       string `json:"size"`
	Direction  string `json:"direction"`
}

func parseVestPositionResponse(raw []byte) (*models.PositionState, error) {
	var wire vestPositionWire
	if err := decodeJSON(raw, &wire); err != nil {
		return nil, err
	}

	pos := &models.PositionState{}
	entryPrice, _ := strconv.ParseFloat(wire.EntryPrice, 64)
	size, _ := strconv.ParseFloat(wire.Size, 64)
	pos.EntryPriceA = entryPrice
	pos.Size = size
	if size != 0 {
		pos.OpenIfClosed(models.DirectionAOverB)
	}
	return pos, nil
}

// paradexOrderStatus maps paradex's textual order status to OrderOutcome.
func paradexOrderStatus(status string) models.OrderOutcome {
	switch status {
	case "CLOSED":
		return models.OutcomeFilled
	case "OPEN":
		return models.OutcomePartial
	case "REJECTED", "CANCELLED":
		return models.OutcomeRejected
	default:
		return models.OutcomeError
	}
}

type paradexOrderResponseWire struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	RemainingSize  string `json:"remaining_size"`
	Size           string `json:"size"`
	AvgFillPrice   string `json:"average_fill_price"`
}

func parseParadexOrderResponse(raw []byte) (*models.OrderResponse, error) {
	var wire paradexOrderResponseWire
	if err := decodeJSON(raw, &wire); err != nil {
		return nil, err
	}

	size, _ := strconv.ParseFloat(wire.Size, 64)
	remaining, _ := strconv.ParseFloat(wire.RemainingSize, 64)
	avgPrice, _ := strconv.ParseFloat(wire.AvgFillPrice, 64)

	return &models.OrderResponse{
		OrderID:      wire.ID,
		Outcome:      paradexOrderStatus(wire.Status),
		FilledQty:    size - remaining,
		AvgFillPrice: avgPrice,
	}, nil
}

type paradexPositionWire struct {
	Market     string `json:"market"`
	Side       string `json:"side"`
	Size       string `json:"size"`
	EntryPrice string `json:"average_entry_price"`
}

func parseParadexPositionResponse(raw []byte) (*models.PositionState, error) {
	var wire paradexPositionWire
	if err := decodeJSON(raw, &wire); err != nil {
		return nil, err
	}

	pos := &models.PositionState{}
	entryPrice, _ := strconv.ParseFloat(wire.EntryPrice, 64)
	size, _ := strconv.ParseFloat(wire.Size, 64)
	pos.EntryPriceB = entryPrice
	pos.Size = size
	if size != 0 {
		pos.OpenIfClosed(models.DirectionBOverA)
	}
	return pos, nil
}
