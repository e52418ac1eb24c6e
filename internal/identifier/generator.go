package identifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/spec-kit/civic-service/pkg/util"
)

// Kind scopes a record-number sequence.
type Kind string

const (
	KindGrievance Kind = "GRV"
	KindReceipt   Kind = "RCP"
)

// Sequencer hands out monotonically increasing values for a counter key.
// Implementations must guarantee atomic increments under concurrent callers;
// count-then-format over the record table is not acceptable, two concurrent
// callers would mint the same number.
type Sequencer interface {
	Next(ctx context.Context, key string) (int64, error)
}

// Generator mints unique, human-readable record numbers.
type Generator struct {
	seq Sequencer
}

// NewGenerator builds a generator over the given sequencer.
func NewGenerator(seq Sequencer) *Generator {
	return &Generator{seq: seq}
}

// Next returns the next number for the kind, formatted as
// PREFIX-YYYYMM-000123. The sequence is scoped per kind and month.
func (g *Generator) Next(ctx context.Context, kind Kind, at time.Time) (string, error) {
	period := at.Format("200601")
	seq, err := g.seq.Next(ctx, fmt.Sprintf("%s:%s", kind, period))
	if err != nil {
		return "", apperrors.NewConflict("record number sequence unavailable", map[string]any{
			"kind":   string(kind),
			"period": period,
		})
	}
	return fmt.Sprintf("%s-%s-%06d", kind, period, seq), nil
}

// TransactionID mints a settlement transaction id. No counter is involved:
// the id embeds a base-36 millisecond timestamp plus a random suffix.
func (g *Generator) TransactionID(at time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(at.UnixMilli(), 36))
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return "TXN" + ts + suffix
}
