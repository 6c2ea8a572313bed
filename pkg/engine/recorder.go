package engine

import (
	"context"

	"github.com/erain9/tickbook/pkg/core"
)

// Recorder receives the outcome of every engine operation
type Recorder interface {
	RecordSubmit(ctx context.Context, side core.Side, fills int, traded float64, rested bool)
	RecordCancel(ctx context.Context, ok bool)
	RecordModify(ctx context.Context, ok bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordSubmit(context.Context, core.Side, int, float64, bool) {}
func (nopRecorder) RecordCancel(context.Context, bool)                          {}
func (nopRecorder) RecordModify(context.Context, bool)                          {}
