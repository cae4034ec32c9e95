// Package ledger is the ledger engine: it owns the append-only entry
// sequence and computes income, expense and balance from it on demand.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledger/internal/catalog"
	"ledger/internal/core"
	"ledger/internal/log"
)

var ErrDuplicateID = errors.New("entry id already used")

// Request is everything Append needs. Callers assemble it from their own
// input state; the ledger never reads that state itself.
type Request struct {
	Kind     string `json:"kind"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
}

// Ledger is safe for concurrent use. Appends are applied one at a time in
// the order they acquire the lock.
type Ledger struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	store   Store
	now     func() time.Time
	newID   func() string
	seen    map[string]struct{}
	logger  *log.Logger
}

type Option func(*Ledger)

func WithStore(s Store) Option {
	return func(l *Ledger) { l.store = s }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// New returns an empty ledger over cat. Without options entries live in a
// MemoryStore and get random UUIDs.
func New(cat *catalog.Catalog, opts ...Option) *Ledger {
	l := &Ledger{
		catalog: cat,
		now:     time.Now,
		newID:   uuid.NewString,
		seen:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.store == nil {
		l.store = NewMemoryStore()
	}
	if l.logger == nil {
		l.logger = log.Discard()
	}
	l.logger = l.logger.WithComponent(log.ComponentLedger)
	return l
}

// Catalog returns the catalog entries are resolved against.
func (l *Ledger) Catalog() *catalog.Catalog {
	return l.catalog
}

// Append records a new entry and returns it.
//
// An empty, non-numeric or negative amount, or one that would overflow the
// total of its kind, fails with core.ErrInvalidAmount and an unknown kind
// with core.ErrInvalidKind; in both cases the ledger is left unchanged. An unknown category is not an error: the entry is filed
// under the catalog's default category.
func (l *Ledger) Append(ctx context.Context, req Request) (core.Entry, error) {
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		l.reject(ctx, req, err)
		return core.Entry{}, err
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		l.reject(ctx, req, err)
		return core.Entry{}, err
	}

	category, ok := l.catalog.Lookup(req.Category)
	if !ok {
		category = l.catalog.Default()
		l.logger.DebugContext(ctx, "Unknown category, using default",
			log.FieldCategory, req.Category,
			"default", category.Value)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkTotalFits(ctx, kind, amount); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			l.reject(ctx, req, err)
		}
		return core.Entry{}, err
	}

	id := l.newID()
	if _, dup := l.seen[id]; dup {
		err := fmt.Errorf("%w: %s", ErrDuplicateID, id)
		l.reject(ctx, req, err)
		return core.Entry{}, err
	}

	e := core.Entry{
		ID:        id,
		Kind:      kind,
		Amount:    amount,
		Category:  category,
		CreatedAt: l.now(),
	}
	if err := l.store.Append(ctx, e); err != nil {
		return core.Entry{}, fmt.Errorf("append entry: %w", err)
	}
	l.seen[id] = struct{}{}

	l.logger.DebugContext(ctx, "Entry appended",
		log.NewFields().
			WithEntry(e.ID, e.Kind.String(), e.Amount.String(), e.Category.Value).
			WithOperation(log.OpAppend).
			ToSlice()...)

	return e, nil
}

func (l *Ledger) reject(ctx context.Context, req Request, err error) {
	l.logger.WarnContext(ctx, "Entry rejected",
		log.FieldKind, req.Kind,
		log.FieldRawAmount, req.Amount,
		log.FieldCategory, req.Category,
		log.FieldError, err.Error())
}

// checkTotalFits fails with core.ErrInvalidAmount when adding amount to
// the running total of kind would overflow. Callers hold l.mu.
func (l *Ledger) checkTotalFits(ctx context.Context, kind core.Kind, amount core.Money) error {
	t, err := l.Totals(ctx)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	total := t.Income
	if kind == core.Expense {
		total = t.Expense
	}
	if _, ok := total.CheckedAdd(amount); !ok {
		return fmt.Errorf("%w: %s total would exceed %s", core.ErrInvalidAmount, kind, core.Money{Cents: math.MaxInt64})
	}
	return nil
}

// Entries returns a copy of all entries, oldest first.
func (l *Ledger) Entries(ctx context.Context) ([]core.Entry, error) {
	entries, err := l.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// Len returns the number of entries.
func (l *Ledger) Len(ctx context.Context) (int, error) {
	t, err := l.Totals(ctx)
	if err != nil {
		return 0, err
	}
	return t.Count, nil
}

// Totals computes income, expense and balance from the current entries.
// Nothing is cached between calls.
func (l *Ledger) Totals(ctx context.Context) (core.Totals, error) {
	if s, ok := l.store.(Summer); ok {
		t, err := s.Sum(ctx)
		if err != nil {
			return core.Totals{}, fmt.Errorf("sum entries: %w", err)
		}
		return t, nil
	}

	entries, err := l.Entries(ctx)
	if err != nil {
		return core.Totals{}, err
	}
	return core.Summarize(entries), nil
}

// TotalIncome is the sum of all income amounts.
func (l *Ledger) TotalIncome(ctx context.Context) (core.Money, error) {
	t, err := l.Totals(ctx)
	return t.Income, err
}

// TotalExpense is the sum of all expense amounts.
func (l *Ledger) TotalExpense(ctx context.Context) (core.Money, error) {
	t, err := l.Totals(ctx)
	return t.Expense, err
}

// Balance is TotalIncome minus TotalExpense.
func (l *Ledger) Balance(ctx context.Context) (core.Money, error) {
	t, err := l.Totals(ctx)
	return t.Balance, err
}
