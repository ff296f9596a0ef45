package cancellation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Policy decides refund eligibility from how far ahead of the booking a cancel happens
type Policy struct {
	// RefundWindow is exclusive: cancelling exactly this far ahead is not refunded
	RefundWindow time.Duration
	// Fee is withheld from an eligible refund
	Fee float64
}

// Decision is the policy outcome for one booking at one instant
type Decision struct {
	HoursBefore  float64
	Eligible     bool
	Fee          float64
	RefundAmount float64
}

func (p Policy) Evaluate(scheduledAt, now time.Time, amountPaid float64) Decision {
	until := scheduledAt.Sub(now)
	d := Decision{
		HoursBefore: math.Round(until.Hours()*100) / 100,
		Eligible:    until > p.RefundWindow,
	}
	if d.Eligible {
		d.Fee = math.Min(p.Fee, amountPaid)
		d.RefundAmount = math.Max(amountPaid-p.Fee, 0)
	}
	return d
}

// NewRefundID returns a refund reference of the form RFND_<unix seconds>_<8 hex>
func NewRefundID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("RFND_%d_%s", now.Unix(), suffix)
}
