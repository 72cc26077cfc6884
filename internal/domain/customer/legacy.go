package customer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LegacyFields holds columns written by older record shapes that predate
// the processing_orgs list and the memo history.
type LegacyFields struct {
	ProcessingOrg    string
	ProcessingStatus string
	ProcessingDate   *time.Time
	ProcessingAmount decimal.Decimal
	Memo             string
}

// IsEmpty reports whether no legacy column is populated
func (l LegacyFields) IsEmpty() bool {
	return l.ProcessingOrg == "" && l.Memo == ""
}

// MigrateLegacy upgrades a customer loaded from an older record shape. It is
// applied once when records are read from storage and is idempotent: lists
// that are already populated win over the legacy columns.
// It reports whether anything was converted.
func MigrateLegacy(c *Customer, legacy LegacyFields) bool {
	migrated := false

	if len(c.ProcessingOrgs) == 0 && legacy.ProcessingOrg != "" {
		status := legacy.ProcessingStatus
		if status == "" {
			status = OrgStatusApplied
		}
		org := ProcessingOrg{
			Org:             legacy.ProcessingOrg,
			Status:          status,
			AppliedAt:       legacy.ProcessingDate,
			RequestedAmount: legacy.ProcessingAmount,
		}
		if status == OrgStatusExecuted {
			org.ExecutedAt = legacy.ProcessingDate
			org.ApprovedAmount = legacy.ProcessingAmount
		}
		c.ProcessingOrgs = []ProcessingOrg{org}
		migrated = true
	}

	if len(c.Memos) == 0 && legacy.Memo != "" {
		c.Memos = []Memo{{
			ID:         uuid.NewSHA1(uuid.NameSpaceOID, []byte(c.ID.String()+"/legacy-memo")),
			Content:    legacy.Memo,
			AuthorName: "legacy",
			CreatedAt:  c.CreatedAt,
		}}
		migrated = true
	}

	if c.FoundingDate != nil && !c.Over7Years {
		c.Over7Years = IsOver7Years(*c.FoundingDate, time.Now())
	}

	return migrated
}
