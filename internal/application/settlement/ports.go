package settlement

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bizconsult/crm/internal/domain/settlement"
)

// ErrLockNotObtained is returned by Locker when another sync holds the key
var ErrLockNotObtained = errors.New("settlement lock not obtained")

// Lock is a held lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker serializes settlement writes per customer across instances
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Exporter writes a settlement workbook
type Exporter interface {
	Write(w io.Writer, period string, items []settlement.Item, summaries []settlement.MonthlySettlementSummary) error
}
