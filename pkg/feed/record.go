package feed

import (
	"encoding/json"
	"fmt"

	"github.com/erain9/tickbook/pkg/core"
	"github.com/nikolaydubina/fpdecimal"
)

// Record is one line of an order log: a limit order from a trader, or a
// cancellation when Price is zero, in which case Quantity carries the id of
// the order to cancel
type Record struct {
	Trader   uint32
	Side     core.Side
	Price    fpdecimal.Decimal
	Quantity uint32
}

// IsCancel reports whether the record cancels an earlier order
func (r Record) IsCancel() bool {
	return r.Price.Equal(fpdecimal.Zero)
}

// SideName returns the log spelling of a side
func SideName(s core.Side) string {
	if s == core.Buy {
		return "Bid"
	}
	return "Ask"
}

type recordJSON struct {
	Trader   uint32 `json:"trader"`
	Side     string `json:"side"`
	Price    string `json:"price"`
	Quantity uint32 `json:"quantity"`
}

// MarshalJSON implements Marshaler interface
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Trader:   r.Trader,
		Side:     SideName(r.Side),
		Price:    r.Price.String(),
		Quantity: r.Quantity,
	})
}

// UnmarshalJSON implements Unmarshaler interface
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	side, err := core.ParseSide(raw.Side)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	price, err := fpdecimal.FromString(raw.Price)
	if err != nil {
		return fmt.Errorf("%w: price %q: %v", ErrMalformedRecord, raw.Price, err)
	}

	*r = Record{
		Trader:   raw.Trader,
		Side:     side,
		Price:    price,
		Quantity: raw.Quantity,
	}
	return nil
}
