package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erain9/tickbook/pkg/core"
	"github.com/nikolaydubina/fpdecimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `trader,side,price,quantity
1,Ask,10,5
2,Bid,11,3
0,Bid,0,0
3,Bid,9.5,2
`

func TestReadRecords(t *testing.T) {
	records, err := ReadRecords(strings.NewReader(sampleLog), true)
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, uint32(1), records[0].Trader)
	assert.Equal(t, core.Sell, records[0].Side)
	assert.Equal(t, core.Buy, records[1].Side)
	assert.True(t, records[2].IsCancel())
	assert.True(t, records[3].Price.Equal(fpdecimal.FromFloat(9.5)))
}

func TestReadRecordsErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line string
	}{
		{"short line", "1,Bid,10\n", ""},
		{"bad trader", "x,Bid,10,1\n", "line 1"},
		{"bad side", "1,Hold,10,1\n", "line 1"},
		{"bad price", "1,Bid,ten,1\n", "line 1"},
		{"bad quantity", "1,Bid,10,1\n1,Bid,10,-1\n", "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRecords(strings.NewReader(tt.in), false)
			require.ErrorIs(t, err, ErrMalformedRecord)
			assert.Contains(t, err.Error(), tt.line)
		})
	}
}

func TestReadCSVTranslates(t *testing.T) {
	actions, err := ReadCSV(strings.NewReader(sampleLog), CSVOptions{Header: true, TickSize: "0.5"})
	require.NoError(t, err)
	require.Len(t, actions, 4)

	assert.Equal(t, KindSell, actions[0].Kind)
	assert.Equal(t, uint32(0), actions[0].Order.ID())
	assert.Equal(t, uint32(20), actions[0].Order.Price())
	assert.Equal(t, uint32(5), actions[0].Order.Quantity())

	assert.Equal(t, KindBuy, actions[1].Kind)
	assert.Equal(t, uint32(1), actions[1].Order.ID())
	assert.Equal(t, uint32(22), actions[1].Order.Price())

	assert.Equal(t, KindCancel, actions[2].Kind)
	assert.Equal(t, uint32(0), actions[2].CancelID)

	// cancellations do not consume an id
	assert.Equal(t, uint32(2), actions[3].Order.ID())
	assert.Equal(t, uint32(19), actions[3].Order.Price())
}

func TestReadCSVOffTick(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(sampleLog), CSVOptions{Header: true})
	assert.ErrorIs(t, err, ErrOffTick)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0o600))

	records, err := LoadRecords(path, true)
	require.NoError(t, err)
	assert.Len(t, records, 4)

	actions, err := LoadFile(path, CSVOptions{Header: true, TickSize: "0.5"})
	require.NoError(t, err)
	assert.Len(t, actions, 4)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"), CSVOptions{})
	assert.Error(t, err)
}

func TestTranslator(t *testing.T) {
	_, err := NewTranslator("0")
	assert.ErrorIs(t, err, ErrInvalidTickSize)
	_, err = NewTranslator("abc")
	assert.ErrorIs(t, err, ErrInvalidTickSize)

	tr, err := NewTranslator("0.01")
	require.NoError(t, err)

	ticks, err := tr.Ticks(fpdecimal.FromFloat(12.34))
	require.NoError(t, err)
	assert.Equal(t, uint32(1234), ticks)

	_, err = tr.Ticks(fpdecimal.FromFloat(-1.0))
	assert.ErrorIs(t, err, ErrPriceRange)
	_, err = tr.Ticks(fpdecimal.FromFloat(1e12))
	assert.ErrorIs(t, err, ErrPriceRange)

	a, err := tr.Translate(Record{Side: core.Buy, Price: fpdecimal.FromFloat(1.0), Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, "buy 0 x 4 @ 100", a.String())
	assert.Equal(t, uint32(1), tr.NextID())

	a, err = tr.Translate(Record{Price: fpdecimal.Zero, Quantity: 0})
	require.NoError(t, err)
	assert.Equal(t, "cancel 0", a.String())
	assert.Equal(t, uint32(1), tr.NextID())
}

func TestActionNewOrderIsACopy(t *testing.T) {
	a := Action{Kind: KindBuy, Order: *core.NewSimpleOrder(1, 5, 10)}
	o := a.NewOrder()
	o.SetQuantity(1)
	assert.Equal(t, uint32(5), a.Order.Quantity())
}

func TestRecordJSON(t *testing.T) {
	var rec Record
	require.NoError(t, rec.UnmarshalJSON([]byte(`{"trader":7,"side":"Bid","price":"10.25","quantity":3}`)))
	assert.Equal(t, uint32(7), rec.Trader)
	assert.Equal(t, core.Buy, rec.Side)
	assert.True(t, rec.Price.Equal(fpdecimal.FromFloat(10.25)))

	data, err := rec.MarshalJSON()
	require.NoError(t, err)
	var back Record
	require.NoError(t, back.UnmarshalJSON(data))
	assert.Equal(t, rec.Trader, back.Trader)
	assert.Equal(t, rec.Side, back.Side)
	assert.True(t, rec.Price.Equal(back.Price))
	assert.Contains(t, string(data), `"side":"Bid"`)

	assert.ErrorIs(t, rec.UnmarshalJSON([]byte(`{"side":"Up","price":"1"}`)), ErrMalformedRecord)
	assert.ErrorIs(t, rec.UnmarshalJSON([]byte(`{"side":"Bid","price":"x"}`)), ErrMalformedRecord)
	assert.ErrorIs(t, rec.UnmarshalJSON([]byte(`[`)), ErrMalformedRecord)
}
