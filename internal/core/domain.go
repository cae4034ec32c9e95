package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind says whether an entry adds to or subtracts from the balance.
	Kind string

	// Category tags an entry. Color and Icon are display hints the ledger
	// never interprets.
	Category struct {
		Value string `json:"value" yaml:"value"`
		Label string `json:"label" yaml:"label"`
		Color string `json:"color" yaml:"color"`
		Icon  string `json:"icon" yaml:"icon"`
	}

	// Entry is one recorded income or expense. It is never modified after
	// the ledger creates it.
	Entry struct {
		ID        string
		Kind      Kind
		Amount    Money
		Category  Category
		CreatedAt time.Time
	}

	// Totals is a freshly computed summary of a ledger.
	Totals struct {
		Income  Money
		Expense Money
		Balance Money
		Count   int
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidKind   = errors.New("invalid entry kind")
	ErrEmptyID       = errors.New("empty entry id")
	ErrEmptyCategory = errors.New("empty category value")
)

// ParseKind accepts "income" or "expense" in any letter case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if err := k.Validate(); err != nil {
		return "", err
	}
	return k, nil
}

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
}

func (k Kind) String() string {
	return string(k)
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Value) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if err := e.Kind.Validate(); err != nil {
		return err
	}
	if e.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if err := e.Category.Validate(); err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		return errors.New("entry timestamp cannot be zero")
	}
	return nil
}

// Date returns the calendar date of the entry for display.
func (e Entry) Date() string {
	return e.CreatedAt.Format(time.DateOnly)
}

// Time returns the clock time of the entry for display.
func (e Entry) Time() string {
	return e.CreatedAt.Format(time.TimeOnly)
}

// Summarize totals entries by kind. The balance is income minus expense.
func Summarize(entries []Entry) Totals {
	var t Totals
	for _, e := range entries {
		switch e.Kind {
		case Income:
			t.Income = t.Income.Add(e.Amount)
		case Expense:
			t.Expense = t.Expense.Add(e.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	t.Count = len(entries)
	return t
}
