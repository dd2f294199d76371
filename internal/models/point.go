package models

// MaxPoint is the upper bound a user's balance may never exceed.
const MaxPoint int64 = 10_000_000

type UserPoint struct {
	ID           int64 `json:"id"`
	Point        int64 `json:"point"`
	UpdateMillis int64 `json:"updateMillis"`
}

// PointHistory is one immutable ledger entry. Amount holds the balance
// after the operation, not the delta.
type PointHistory struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"userId"`
	Amount       int64           `json:"amount"`
	Type         TransactionType `json:"type"`
	UpdateMillis int64           `json:"updateMillis"`
}

type TransactionType string

const (
	TransactionTypeCharge TransactionType = "CHARGE"
	TransactionTypeUse    TransactionType = "USE"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeCharge, TransactionTypeUse:
		return true
	}
	return false
}

// Outcome classifies the result of a charge or use. The zero value is
// OutcomeUnknown and accompanies every error.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeSuccess
	OutcomeInvalidAmount
	OutcomeExceed
	OutcomeInsufficient
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnknown:
		return "unknown"
	case OutcomeSuccess:
		return "success"
	case OutcomeInvalidAmount:
		return "invalid_amount"
	case OutcomeExceed:
		return "exceed"
	case OutcomeInsufficient:
		return "insufficient"
	}
	return "unknown"
}
