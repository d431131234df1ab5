package paymentcharge

import (
	"context"
	"strconv"

	stripeapi "github.com/stripe/stripe-go/v72"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"spreadsheet-hooks/internal/common/errors"
	"spreadsheet-hooks/internal/common/idempotency"
	"spreadsheet-hooks/internal/common/logger"
	"spreadsheet-hooks/internal/common/observability"
	"spreadsheet-hooks/internal/common/stripe"
)

// MetadataRequestID is the Stripe metadata key carrying the invocation id.
const MetadataRequestID = "calculation_request_id"

type Service struct {
	config   *Config
	logger   logger.Logger
	provider Provider
	guard    idempotency.Guard
	obs      *observability.Observability
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	guard := deps.Guard
	if guard == nil {
		guard = idempotency.NoopGuard{}
	}
	return &Service{
		config:   config,
		logger:   deps.Logger,
		provider: deps.Provider,
		guard:    guard,
		obs:      deps.Observability,
	}
}

// Charge tokenizes the card and charges it once. guarded is set when the
// request id came from the host and may be re-delivered.
func (s *Service) Charge(ctx context.Context, requestID string, guarded bool, input *Input) (*stripeapi.Charge, error) {
	log := s.logger.WithFields(map[string]interface{}{
		"requestId": requestID,
		"cardLast4": lastFour(input.CardNumber),
		"amount":    input.Amount,
		"currency":  s.config.Currency,
	})

	acquired := false
	var attempt int64
	if guarded {
		n, ok, err := s.guard.Acquire(ctx, requestID)
		switch {
		case err != nil:
			log.Warn("Duplicate-charge guard unavailable, continuing", map[string]interface{}{
				"error": err.Error(),
			})
		case !ok:
			log.Warn("Duplicate submission rejected", nil)
			return nil, errors.NewDuplicateSubmissionError(requestID)
		default:
			acquired = true
			attempt = n
		}
	}

	charged := false
	defer func() {
		if acquired && !charged {
			if err := s.guard.Release(context.WithoutCancel(ctx), requestID); err != nil {
				log.Warn("Failed to release duplicate-charge guard", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}()

	tok, err := s.createToken(ctx, requestID, input)
	if err != nil {
		log.Warn("Card tokenization failed", map[string]interface{}{
			"errorCode": string(errors.Normalize(err).Code),
		})
		return nil, err
	}

	ch, err := s.createCharge(ctx, requestID, IdempotencyKey(requestID, attempt), tok.ID, input)
	if err != nil {
		log.Warn("Charge failed", map[string]interface{}{
			"errorCode": string(errors.Normalize(err).Code),
		})
		return nil, err
	}
	charged = true

	log.Info("Charge created", map[string]interface{}{
		"chargeId": ch.ID,
		"status":   ch.Status,
	})
	return ch, nil
}

func (s *Service) createToken(ctx context.Context, requestID string, input *Input) (*stripeapi.Token, error) {
	ctx, span := s.obs.StartSpan(ctx, "stripe.token.create",
		attribute.String("calculation.request_id", requestID),
	)
	defer span.End()

	tok, err := s.provider.CreateToken(ctx, stripe.CardDetails{
		Name:     input.Name,
		Number:   input.CardNumber,
		ExpMonth: input.ExpMonth,
		ExpYear:  input.ExpYear,
		CVC:      input.CVC,
	})
	if err != nil {
		span.SetStatus(codes.Error, string(errors.Normalize(err).Code))
		return nil, err
	}
	return tok, nil
}

func (s *Service) createCharge(ctx context.Context, requestID, idempotencyKey, source string, input *Input) (*stripeapi.Charge, error) {
	ctx, span := s.obs.StartSpan(ctx, "stripe.charge.create",
		attribute.String("calculation.request_id", requestID),
		attribute.String("charge.idempotency_key", idempotencyKey),
		attribute.Int64("charge.amount", input.Amount),
		attribute.String("charge.currency", s.config.Currency),
	)
	defer span.End()

	ch, err := s.provider.CreateCharge(ctx, stripe.ChargeDetails{
		Amount:         input.Amount,
		Currency:       s.config.Currency,
		Description:    input.Description,
		Source:         source,
		IdempotencyKey: idempotencyKey,
		Metadata:       map[string]string{MetadataRequestID: requestID},
	})
	if err != nil {
		span.SetStatus(codes.Error, string(errors.Normalize(err).Code))
		return nil, err
	}
	return ch, nil
}

// IdempotencyKey is the Stripe key for a charge. Attempts after a released
// failure get a suffix so Stripe does not replay the earlier outcome.
func IdempotencyKey(requestID string, attempt int64) string {
	key := "calc-charge-" + requestID
	if attempt > 0 {
		key += "-" + strconv.FormatInt(attempt, 10)
	}
	return key
}
