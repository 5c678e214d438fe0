package outcall

import (
	"context"
	"fmt"

	"github.com/jrife/tokenbook/metrics"
	"github.com/jrife/tokenbook/utils/log"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// AgreementConfig configures an Agreement
type AgreementConfig struct {
	Logger   *zap.Logger
	Registry *Registry
	Budget   *Budget
	Metrics  *metrics.Metrics
	// MaxConcurrency bounds concurrent requests. Zero means one per issuer.
	MaxConcurrency int
}

// Agreement runs one request through every replica's issuer
// and accepts the result only if every replica's transformed
// response is identical
type Agreement struct {
	logger         *zap.Logger
	registry       *Registry
	budget         *Budget
	metrics        *metrics.Metrics
	maxConcurrency int
}

// NewAgreement creates an Agreement. A nil Registry gets
// NewRegistry() and a nil Budget is unlimited.
func NewAgreement(config AgreementConfig) *Agreement {
	agreement := &Agreement{
		logger:         config.Logger,
		registry:       config.Registry,
		budget:         config.Budget,
		metrics:        config.Metrics,
		maxConcurrency: config.MaxConcurrency,
	}

	if agreement.logger == nil {
		agreement.logger = zap.L()
	}

	if agreement.registry == nil {
		agreement.registry = NewRegistry()
	}

	return agreement
}

// Registry returns the transform registry
func (agreement *Agreement) Registry() *Registry {
	return agreement.registry
}

// Call charges the request's cycles, issues it through every
// issuer concurrently, and returns the agreed transformed
// response. Cycles are charged before any issuer runs and are
// kept whatever the outcome.
func (agreement *Agreement) Call(ctx context.Context, request Request, issuers []Issuer) (Response, error) {
	logger := log.WithContext(ctx, agreement.logger).With(zap.String("operation", "Call"), zap.String("url", request.URL))
	logger.Debug("start Call()", zap.Int("replicas", len(issuers)))

	transform, err := agreement.registry.Lookup(request.Transform)

	if err != nil {
		agreement.metrics.ObserveOutcall(metrics.OutcomeRejected)

		return Response{}, err
	}

	if len(issuers) == 0 {
		agreement.metrics.ObserveOutcall(metrics.OutcomeRejected)

		return Response{}, fmt.Errorf("no replicas to issue the request")
	}

	if agreement.budget != nil {
		if err := agreement.budget.Charge(request.Cycles); err != nil {
			agreement.metrics.ObserveOutcall(metrics.OutcomeExhausted)
			logger.Warn("outcall rejected", zap.Error(err))

			return Response{}, err
		}

		agreement.metrics.ObserveCycles(request.Cycles)
	}

	maxConcurrency := agreement.maxConcurrency

	if maxConcurrency <= 0 || maxConcurrency > len(issuers) {
		maxConcurrency = len(issuers)
	}

	var transformContext []byte

	if request.Transform != nil {
		transformContext = request.Transform.Context
	}

	p := pool.NewWithResults[Response]().WithContext(ctx).WithMaxGoroutines(maxConcurrency)

	for _, issuer := range issuers {
		issuer := issuer

		p.Go(func(ctx context.Context) (Response, error) {
			response, err := issuer.Issue(ctx, request)

			if err != nil {
				return Response{}, err
			}

			return transform(TransformArgs{Response: response, Context: transformContext}), nil
		})
	}

	responses, err := p.Wait()

	if err != nil {
		agreement.metrics.ObserveOutcall(metrics.OutcomeFailed)
		logger.Warn("outcall failed", zap.Error(err))

		return Response{}, fmt.Errorf("outcall failed: %w", err)
	}

	if len(responses) != len(issuers) {
		agreement.metrics.ObserveOutcall(metrics.OutcomeFailed)

		return Response{}, fmt.Errorf("outcall failed: %d of %d replicas responded", len(responses), len(issuers))
	}

	for _, response := range responses[1:] {
		if !response.Equal(responses[0]) {
			agreement.metrics.ObserveOutcall(metrics.OutcomeDisagreed)
			logger.Warn("replicas disagree on outcall response")

			return Response{}, ErrDisagreement
		}
	}

	agreement.metrics.ObserveOutcall(metrics.OutcomeOK)
	logger.Debug("return from Call()", zap.Int("status", responses[0].Status))

	return responses[0], nil
}
