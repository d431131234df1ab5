package paymentcharge

import (
	"context"

	stripeapi "github.com/stripe/stripe-go/v72"

	"spreadsheet-hooks/internal/common/idempotency"
	"spreadsheet-hooks/internal/common/logger"
	"spreadsheet-hooks/internal/common/observability"
	"spreadsheet-hooks/internal/common/stripe"
)

// Named ranges the hook reads and writes.
const (
	RefName       = "iName"
	RefSurname    = "iSurname"
	RefCardNumber = "iCardNumber"
	RefYear       = "iYear"
	RefMonth      = "iMonth"
	RefCVC        = "iCVC"
	RefAmount     = "iAmount"
	RefDesc       = "iDesc"
	RefResponse   = "oResponse"
)

// RequiredInputRefs lists the inputs in the order they are reported when missing.
var RequiredInputRefs = []string{
	RefName, RefSurname, RefCardNumber, RefYear, RefMonth, RefCVC, RefAmount, RefDesc,
}

// SuccessMessage is the informational message of a successful charge.
const SuccessMessage = "Payment is successful"

// Input is the charge request extracted from one calculation. It lives for a
// single invocation and is never persisted.
type Input struct {
	Name        string
	CardNumber  string
	ExpYear     int
	ExpMonth    int
	CVC         string
	Amount      int64
	Description string
}

// Provider is the subset of the payment client the hook needs.
type Provider interface {
	CreateToken(ctx context.Context, card stripe.CardDetails) (*stripeapi.Token, error)
	CreateCharge(ctx context.Context, charge stripe.ChargeDetails) (*stripeapi.Charge, error)
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Provider      Provider
	Guard         idempotency.Guard
	Observability *observability.Observability
}
