package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/catalog"
	"ledger/internal/core"
	"ledger/internal/ledger"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(fmt.Sprintf("%s-%d", t.Name(), time.Now().UnixNano()), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func entry(id string, kind core.Kind, cents int64, cat string) core.Entry {
	return core.Entry{
		ID:        id,
		Kind:      kind,
		Amount:    core.Money{Cents: cents},
		Category:  core.Category{Value: cat, Label: cat, Color: "#fff", Icon: "x"},
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 6, time.UTC),
	}
}

func TestSQLiteStoreAppendAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	want := []core.Entry{
		entry("b", core.Income, 10000, "salary"),
		entry("a", core.Expense, 4250, "food"),
		entry("c", core.Expense, 1, "food"),
	}
	for _, e := range want {
		require.NoError(t, s.Append(ctx, e))
	}

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID, "insertion order preserved")
		assert.Equal(t, want[i].Amount, got[i].Amount)
		assert.Equal(t, want[i].Category, got[i].Category)
		assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt))
	}
}

func TestSQLiteStoreRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Append(ctx, entry("dup", core.Income, 1, "salary")))
	assert.Error(t, s.Append(ctx, entry("dup", core.Income, 1, "salary")))

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteStoreSum(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	totals, err := s.Sum(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.Totals{}, totals)

	require.NoError(t, s.Append(ctx, entry("1", core.Income, 10000, "salary")))
	require.NoError(t, s.Append(ctx, entry("2", core.Expense, 4250, "food")))

	totals, err = s.Sum(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100.00", totals.Income.String())
	assert.Equal(t, "42.50", totals.Expense.String())
	assert.Equal(t, "57.50", totals.Balance.String())
	assert.Equal(t, 2, totals.Count)
}

func TestSeparateNamesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := newTestStore(t)
	b := newTestStore(t)

	require.NoError(t, a.Append(ctx, entry("1", core.Income, 1, "salary")))

	got, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLedgerOverSQLiteStore(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(catalog.Builtin(), ledger.WithStore(newTestStore(t)))

	_, err := l.Append(ctx, ledger.Request{Kind: "income", Amount: "100", Category: "salary"})
	require.NoError(t, err)
	_, err = l.Append(ctx, ledger.Request{Kind: "expense", Amount: "42.5", Category: "food"})
	require.NoError(t, err)
	e, err := l.Append(ctx, ledger.Request{Kind: "expense", Amount: "10", Category: "unknown-category"})
	require.NoError(t, err)
	assert.Equal(t, "salary", e.Category.Value)

	bal, err := l.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "47.50", bal.String())

	n, err := l.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestLedgerOverSQLiteStoreRejectsTotalOverflow(t *testing.T) {
	const nearMax = "92233720368547758.07"
	ctx := context.Background()
	l := ledger.New(catalog.Builtin(), ledger.WithStore(newTestStore(t)))

	_, err := l.Append(ctx, ledger.Request{Kind: "income", Amount: nearMax, Category: "salary"})
	require.NoError(t, err)
	_, err = l.Append(ctx, ledger.Request{Kind: "income", Amount: nearMax, Category: "salary"})
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	totals, err := l.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, nearMax, totals.Income.String())
	assert.Equal(t, nearMax, totals.Balance.String())
	assert.Equal(t, 1, totals.Count)
}

func TestUpgradeSchemaIsIdempotent(t *testing.T) {
	name := fmt.Sprintf("%s-%d", t.Name(), time.Now().UnixNano())
	s, err := NewSQLiteStore(name, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	version, err := s.upgradeSchema(MemoryDSN(name))
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	require.NoError(t, s.Append(context.Background(), entry("a", core.Income, 100, "salary")))
}

func TestNewSQLiteStoreRequiresName(t *testing.T) {
	_, err := NewSQLiteStore("  ", nil)
	assert.Error(t, err)
}
