package customer

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the customer's funnel stage
type Status string

const (
	StatusAwaiting            Status = "상담대기"
	StatusCounseling          Status = "상담중"
	StatusAbsent              Status = "부재"
	StatusLongAbsence         Status = "장기부재"
	StatusRecounsel           Status = "재상담"
	StatusDeclined            Status = "거절"
	StatusPreparingDocs       Status = "서류준비"
	StatusDocsReceived        Status = "서류접수"
	StatusApplied             Status = "신청완료"
	StatusUnderReview         Status = "심사중"
	StatusSupplementRequested Status = "보완요청"
	StatusContractPrepaid     Status = "계약완료(선불)"
	StatusContractPostpaid    Status = "계약완료(후불)"
	StatusContractOutsourced  Status = "계약완료(외주)"
	StatusExecuted            Status = "집행완료"
	StatusExecutedOutsourced  Status = "집행완료(외주)"
	StatusRejected            Status = "부결"
	StatusFinalRejected       Status = "최종부결"
	StatusOnHold              Status = "보류"
)

// AllStatuses returns the funnel vocabulary in pipeline order
func AllStatuses() []Status {
	return []Status{
		StatusAwaiting,
		StatusCounseling,
		StatusAbsent,
		StatusLongAbsence,
		StatusRecounsel,
		StatusDeclined,
		StatusPreparingDocs,
		StatusDocsReceived,
		StatusApplied,
		StatusUnderReview,
		StatusSupplementRequested,
		StatusContractPrepaid,
		StatusContractPostpaid,
		StatusContractOutsourced,
		StatusExecuted,
		StatusExecutedOutsourced,
		StatusRejected,
		StatusFinalRejected,
		StatusOnHold,
	}
}

// IsValid reports whether s belongs to the vocabulary
func (s Status) IsValid() bool {
	return slices.Contains(AllStatuses(), s)
}

// String returns the status label
func (s Status) String() string {
	return string(s)
}

// ParseStatus validates a raw status label
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", ErrUnknownStatus
	}
	return s, nil
}

// IsContractCompleted reports whether s is one of the contract-completed variants
func (s Status) IsContractCompleted() bool {
	switch s {
	case StatusContractPrepaid, StatusContractPostpaid, StatusContractOutsourced:
		return true
	}
	return false
}

// IsExecuted reports whether s is one of the execution-completed variants
func (s Status) IsExecuted() bool {
	return s == StatusExecuted || s == StatusExecutedOutsourced
}

// ContractType is the fee arrangement agreed with the customer
type ContractType string

const (
	ContractTypeNone       ContractType = ""
	ContractTypePrepaid    ContractType = "선불"
	ContractTypePostpaid   ContractType = "후불"
	ContractTypeOutsourced ContractType = "외주"
)

// ContractType returns the fee arrangement implied by the status, if any
func (s Status) ContractType() ContractType {
	switch s {
	case StatusContractPrepaid:
		return ContractTypePrepaid
	case StatusContractPostpaid:
		return ContractTypePostpaid
	case StatusContractOutsourced, StatusExecutedOutsourced:
		return ContractTypeOutsourced
	}
	return ContractTypeNone
}

// Field names a supplementary field collected when entering a status
type Field string

const (
	FieldContractDate    Field = "contract_date"
	FieldContractAmount  Field = "contract_amount"
	FieldExecutionDate   Field = "execution_date"
	FieldExecutionAmount Field = "execution_amount"
	FieldFeeRate         Field = "fee_rate"
	FieldProcessingOrg   Field = "processing_org"
	FieldClawbackDate    Field = "clawback_date"
)

// SideEffect names work triggered after a status change is persisted
type SideEffect string

const (
	SideEffectSettlementSync      SideEffect = "settlement_sync"
	SideEffectClawback            SideEffect = "clawback"
	SideEffectLongAbsenceNotifier SideEffect = "long_absence_notification"
)

// TransitionRule describes what entering a status requires and triggers
type TransitionRule struct {
	RequiredFields []Field
	SideEffects    []SideEffect
}

// Has reports whether the rule fires the given side effect
func (r TransitionRule) Has(effect SideEffect) bool {
	return slices.Contains(r.SideEffects, effect)
}

var contractRule = TransitionRule{
	RequiredFields: []Field{FieldContractDate, FieldContractAmount},
	SideEffects:    []SideEffect{SideEffectSettlementSync},
}

var executionRule = TransitionRule{
	RequiredFields: []Field{FieldExecutionDate, FieldExecutionAmount, FieldFeeRate, FieldProcessingOrg},
	SideEffects:    []SideEffect{SideEffectSettlementSync},
}

// transitionRules is keyed by exact target status. Targets absent from the
// table have no required fields and no side effects.
var transitionRules = map[Status]TransitionRule{
	StatusContractPrepaid:    contractRule,
	StatusContractPostpaid:   contractRule,
	StatusContractOutsourced: contractRule,
	StatusExecuted:           executionRule,
	StatusExecutedOutsourced: executionRule,
	StatusFinalRejected: {
		RequiredFields: []Field{FieldClawbackDate},
		SideEffects:    []SideEffect{SideEffectClawback},
	},
	StatusLongAbsence: {
		SideEffects: []SideEffect{SideEffectLongAbsenceNotifier},
	},
}

// RuleFor returns the transition rule for entering target
func RuleFor(target Status) TransitionRule {
	return transitionRules[target]
}

// Supplement carries the fields collected by the confirmation step.
// Zero values mean "not provided"; the customer's current value is used instead.
type Supplement struct {
	ContractDate    *time.Time
	ContractAmount  decimal.Decimal
	ExecutionDate   *time.Time
	ExecutionAmount decimal.Decimal
	FeeRate         decimal.Decimal
	ProcessingOrg   string
	ClawbackDate    *time.Time
	Note            string
}

// TransitionPlan is the evaluated outcome of a requested status change
type TransitionPlan struct {
	From          Status
	To            Status
	Rule          TransitionRule
	MissingFields []Field
}

// RequiresConfirmation reports whether supplementary fields are still missing
func (p TransitionPlan) RequiresConfirmation() bool {
	return len(p.MissingFields) > 0
}

// PlanTransition evaluates entering target from the customer's current state
func PlanTransition(c *Customer, target Status, s Supplement) TransitionPlan {
	rule := RuleFor(target)
	plan := TransitionPlan{
		From: c.Status,
		To:   target,
		Rule: rule,
	}
	for _, f := range rule.RequiredFields {
		if !c.fieldSatisfied(f, s) {
			plan.MissingFields = append(plan.MissingFields, f)
		}
	}
	return plan
}

func (c *Customer) fieldSatisfied(f Field, s Supplement) bool {
	switch f {
	case FieldContractDate:
		return s.ContractDate != nil || c.ContractDate != nil
	case FieldContractAmount:
		return s.ContractAmount.IsPositive() || c.ContractAmount.IsPositive()
	case FieldExecutionDate:
		return s.ExecutionDate != nil || c.ExecutionDate != nil
	case FieldExecutionAmount:
		return s.ExecutionAmount.IsPositive() || c.ExecutionAmount.IsPositive()
	case FieldFeeRate:
		return s.FeeRate.IsPositive() || c.FeeRate.IsPositive()
	case FieldProcessingOrg:
		return s.ProcessingOrg != "" || c.PrimaryProcessingOrg() != ""
	case FieldClawbackDate:
		return s.ClawbackDate != nil
	}
	return true
}
