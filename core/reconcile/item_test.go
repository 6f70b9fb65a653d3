package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItem(t *testing.T) {
	t.Run("Trims code and copies fields", func(t *testing.T) {
		fields := map[string]string{"CODIGO DE BARRA": " 0000000000001 ", "PDV": "12"}
		item, err := NewItem(Record{
			Code:        " 0000000000001 ",
			Branch:      "12",
			SellerID:    "80012345",
			SellerName:  "ANA",
			PaymentDate: "2024-05-01",
			PrizeAmount: "25000",
			PrizeType:   "SECO",
			Fields:      fields,
		})
		require.NoError(t, err)

		assert.Equal(t, "0000000000001", item.Code)
		assert.Equal(t, 25000.0, item.PrizeAmount)
		assert.Equal(t, "2024-05-01", item.PaymentDate)
		assert.Equal(t, StatePending, item.State)
		assert.Equal(t, 0, item.ScanCount)
		assert.Nil(t, item.ScanTimestamp)
		assert.Equal(t, fields, item.OriginalFields)

		// The record's map is not shared.
		fields["PDV"] = "99"
		assert.Equal(t, "12", item.OriginalFields["PDV"])
	})

	t.Run("Empty code", func(t *testing.T) {
		item, err := NewItem(Record{Code: " \t "})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Nil(t, item)
	})

	t.Run("Unparseable prize", func(t *testing.T) {
		item, err := NewItem(Record{Code: "1", PrizeAmount: "mucho"})
		require.NoError(t, err)
		assert.Equal(t, 0.0, item.PrizeAmount)
	})
}

// TestItem_StateMachine tests the PENDING -> SCANNED -> DUPLICATE transitions.
func TestItem_StateMachine(t *testing.T) {
	item, err := NewItem(Record{Code: "1"})
	require.NoError(t, err)

	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, ResultSuccess, item.markScanned(first))
	assert.Equal(t, StateScanned, item.State)
	assert.Equal(t, 1, item.ScanCount)
	assert.Equal(t, first, *item.ScanTimestamp)

	later := first.Add(time.Hour)
	assert.Equal(t, ResultDuplicate, item.markScanned(later))
	assert.Equal(t, StateDuplicate, item.State)
	assert.Equal(t, 1, item.ScanCount)
	assert.Equal(t, first, *item.ScanTimestamp)

	assert.Equal(t, ResultDuplicate, item.markScanned(later.Add(time.Hour)))
	assert.Equal(t, StateDuplicate, item.State)
	assert.Equal(t, 1, item.ScanCount)
}

func TestItem_Clone(t *testing.T) {
	ts := time.Now()
	item := &Item{Code: "1", State: StateScanned, ScanCount: 1, ScanTimestamp: &ts, OriginalFields: map[string]string{"a": "b"}}

	c := item.Clone()
	c.OriginalFields["a"] = "z"
	*c.ScanTimestamp = ts.Add(time.Hour)

	assert.Equal(t, "b", item.OriginalFields["a"])
	assert.Equal(t, ts, *item.ScanTimestamp)
}

func TestParseState(t *testing.T) {
	tests := []struct {
		in   string
		want State
	}{
		{"PENDING", StatePending},
		{"scanned", StateScanned},
		{" DUPLICATE ", StateDuplicate},
		{"UNREPORTED", StateUnreported},
		{"ESCANEADO", StateScanned},
		{"DUPLICADO", StateDuplicate},
		{"PENDIENTE", StatePending},
		{"garbage", StatePending},
		{"", StatePending},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseState(tt.in))
		})
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	a, _ := NewItem(Record{Code: "1"})
	b, _ := NewItem(Record{Code: "2"})

	require.NoError(t, reg.Add(a))
	require.NoError(t, reg.Add(b))
	assert.ErrorIs(t, reg.Add(&Item{Code: "1"}), ErrDuplicateKey)
	assert.ErrorIs(t, reg.Add(&Item{Code: ""}), ErrValidation)

	got, ok := reg.Get(" 1 ")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, 2, reg.Len())

	items := reg.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].Code)
	assert.Equal(t, "2", items[1].Code)

	clone := reg.Clone()
	cloned, _ := clone.Get("1")
	cloned.State = StateScanned
	assert.Equal(t, StatePending, a.State)
}

func TestRegistry_TrimsCodes(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(&Item{Code: "  123 "}))

	got, ok := reg.Get("123")
	require.True(t, ok)
	assert.Equal(t, "123", got.Code)
	assert.ErrorIs(t, reg.Add(&Item{Code: "123"}), ErrDuplicateKey)

	batch := NewRegistry()
	require.NoError(t, batch.AddAll([]*Item{{Code: " 7"}, {Code: "8 "}}))
	_, ok = batch.Get("7")
	assert.True(t, ok)
	assert.Equal(t, []string{"7", "8"}, []string{batch.Items()[0].Code, batch.Items()[1].Code})

	assert.ErrorIs(t, NewRegistry().AddAll([]*Item{{Code: "9"}, {Code: " 9 "}}), ErrDuplicateKey)
}

func TestItem_NormalizeStateClearsPendingTimestamp(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	pending := &Item{Code: "1", State: StatePending, ScanTimestamp: &ts, ScanCount: 3}
	pending.normalizeState()
	assert.Equal(t, StatePending, pending.State)
	assert.Zero(t, pending.ScanCount)
	assert.Nil(t, pending.ScanTimestamp)

	unreported := &Item{Code: "3", State: StateUnreported, ScanTimestamp: &ts, ScanCount: 1}
	unreported.normalizeState()
	assert.Equal(t, StatePending, unreported.State)
	assert.Nil(t, unreported.ScanTimestamp)

	scanned := &Item{Code: "2", State: StateScanned, ScanTimestamp: &ts, ScanCount: 4}
	scanned.normalizeState()
	assert.Equal(t, 1, scanned.ScanCount)
	require.NotNil(t, scanned.ScanTimestamp)
	assert.True(t, ts.Equal(*scanned.ScanTimestamp))
}
