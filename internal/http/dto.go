package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"ledger/internal/core"
)

type (
	// createEntryRequest is the POST /api/entries body. Amount may be sent
	// as a JSON string or number; either way its literal text is parsed.
	createEntryRequest struct {
		Kind     string      `json:"kind"`
		Amount   amountField `json:"amount"`
		Category string      `json:"category"`
	}

	amountField string

	entryResponse struct {
		ID        string        `json:"id"`
		Kind      string        `json:"kind"`
		Amount    string        `json:"amount"`
		Category  core.Category `json:"category"`
		Date      string        `json:"date"`
		Time      string        `json:"time"`
		CreatedAt time.Time     `json:"created_at"`
	}

	entriesResponse struct {
		Entries []entryResponse `json:"entries"`
		Count   int             `json:"count"`
	}

	categoriesResponse struct {
		Categories []core.Category `json:"categories"`
		Default    string          `json:"default"`
	}

	summaryResponse struct {
		Income  string `json:"income"`
		Expense string `json:"expense"`
		Balance string `json:"balance"`
		Count   int    `json:"count"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

func (a *amountField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	case len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')):
		*a = amountField(data)
		return nil
	default:
		return errors.New("amount must be a string or a number")
	}
}

func toEntryResponse(e core.Entry) entryResponse {
	return entryResponse{
		ID:        e.ID,
		Kind:      e.Kind.String(),
		Amount:    e.Amount.String(),
		Category:  e.Category,
		Date:      e.Date(),
		Time:      e.Time(),
		CreatedAt: e.CreatedAt,
	}
}

func toSummaryResponse(t core.Totals) summaryResponse {
	return summaryResponse{
		Income:  t.Income.String(),
		Expense: t.Expense.String(),
		Balance: t.Balance.String(),
		Count:   t.Count,
	}
}
