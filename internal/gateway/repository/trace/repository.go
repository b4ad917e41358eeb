// Package trace archives run traces as JSON documents keyed by run ID.
package trace

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("trace not found")

type Store interface {
	PutTrace(ctx context.Context, runID string, raw []byte) error
	GetTrace(ctx context.Context, runID string) ([]byte, error)
}
