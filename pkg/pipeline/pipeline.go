// Package pipeline orchestrates one invocation end to end: scan the raw
// instruction, resolve each reference against the module store, validate the
// retrieved modules, and compose the final payload. Only an empty invocation
// aborts the run; every per-module failure is folded into the result.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/knolhq/knol/pkg/compose"
	"github.com/knolhq/knol/pkg/invocation"
	"github.com/knolhq/knol/pkg/logger"
	"github.com/knolhq/knol/pkg/store"
	"github.com/knolhq/knol/pkg/telemetry"
	"github.com/knolhq/knol/pkg/validate"
)

// Pipeline wires the scanner, store accessor, validator, and composer. A
// pipeline is stateless between invocations; each Process call is
// independent.
type Pipeline struct {
	marker      string
	families    []validate.Family
	concurrency int

	scanner   *invocation.Scanner
	accessor  *store.Accessor
	validator *validate.Validator
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithMarker sets the reference marker for both scanning and identifier
// normalization.
func WithMarker(marker string) Option {
	return func(p *Pipeline) error {
		if marker == "" {
			return errors.New("reference marker must not be empty")
		}
		p.marker = marker
		return nil
	}
}

// WithFamilies overrides the required section families used for validation.
func WithFamilies(families ...validate.Family) Option {
	return func(p *Pipeline) error {
		if len(families) == 0 {
			return errors.New("at least one section family must be specified")
		}
		p.families = families
		return nil
	}
}

// WithConcurrency bounds how many references are resolved and validated in
// parallel. The default of 1 keeps resolution sequential; any value is safe
// because composition re-imposes token order.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return errors.New("concurrency must be at least 1")
		}
		p.concurrency = n
		return nil
	}
}

// New creates a pipeline over the given module store.
func New(s store.Store, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		marker:      invocation.DefaultMarker,
		families:    validate.DefaultFamilies(),
		concurrency: 1,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, errors.Wrap(err, "failed to apply pipeline option")
		}
	}

	scanner, err := invocation.NewScanner(invocation.WithMarker(p.marker))
	if err != nil {
		return nil, err
	}
	validator, err := validate.New(validate.WithFamilies(p.families...))
	if err != nil {
		return nil, err
	}

	p.scanner = scanner
	p.validator = validator
	p.accessor = store.NewAccessor(s, p.marker)

	return p, nil
}

// Process runs one invocation. It returns invocation.EmptyInvocationError
// when the raw input is blank; every other anomaly is captured inside the
// returned result.
func (p *Pipeline) Process(ctx context.Context, raw string) (*compose.Result, error) {
	invocationID := uuid.NewString()
	ctx = logger.WithLogger(ctx, logger.G(ctx).WithField("invocation_id", invocationID))

	var result *compose.Result
	err := telemetry.WithSpan(ctx, "pipeline.process", func(ctx context.Context) error {
		inv, err := p.scanner.Scan(raw)
		if err != nil {
			return err
		}

		logger.G(ctx).WithFields(map[string]interface{}{
			"topic":      inv.Topic,
			"references": len(inv.References),
		}).Debug("scanned invocation")
		telemetry.SetAttributes(ctx,
			attribute.Int("invocation.references", len(inv.References)),
		)

		resolutions := p.resolve(ctx, inv.References)
		reports := p.validateAll(ctx, resolutions)

		result = compose.Compose(inv, resolutions, reports)

		logger.G(ctx).WithFields(map[string]interface{}{
			"included": len(result.IncludedModules),
			"skipped":  len(result.SkippedModules),
		}).Debug("composed payload")

		return nil
	}, attribute.String("invocation.id", invocationID))
	if err != nil {
		return nil, err
	}

	return result, nil
}

// resolve looks up every reference token, optionally in parallel. The
// returned slice is indexed by token order regardless of completion order.
func (p *Pipeline) resolve(ctx context.Context, refs []invocation.ReferenceToken) []compose.Resolution {
	resolutions := make([]compose.Resolution, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			module, err := p.accessor.Resolve(gctx, ref)
			resolutions[i] = compose.Resolution{Token: ref, Module: module, Err: err}
			return nil
		})
	}
	// Workers never return errors; failed lookups are data.
	_ = g.Wait()

	return resolutions
}

// validateAll produces one report per distinct resolved identifier.
func (p *Pipeline) validateAll(ctx context.Context, resolutions []compose.Resolution) map[string]validate.Report {
	reports := make(map[string]validate.Report)
	for _, res := range resolutions {
		if res.Module == nil {
			continue
		}
		if _, ok := reports[res.Module.Identifier]; ok {
			continue
		}

		report := p.validator.Validate(res.Module)
		reports[res.Module.Identifier] = report
		if !report.Valid() {
			logger.G(ctx).WithFields(map[string]interface{}{
				"module":  res.Module.Identifier,
				"missing": report.MissingSections,
			}).Debug("module failed structural validation")
		}
	}
	return reports
}
