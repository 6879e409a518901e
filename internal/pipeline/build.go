package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"kdcflow/internal/catalog"
	"kdcflow/internal/config"
	"kdcflow/internal/decision"
	"kdcflow/internal/generator"
	"kdcflow/internal/kdc"
	"kdcflow/internal/providers"
	"kdcflow/internal/registry"
	"kdcflow/internal/rules"
)

// EngineOptions maps the configured tunables onto the decision engine.
func EngineOptions(p config.Pipeline) decision.Options {
	opts := decision.DefaultOptions()
	opts.Weights = rules.Weights{
		Title:             p.TitleWeight,
		Category:          p.CategoryWeight,
		Description:       p.DescriptionWeight,
		GenericPenalty:    p.GenericPenalty,
		DescriptionPrefix: p.DescriptionPrefix,
	}
	if p.MinAllowed > 0 {
		opts.MinAllowed = p.MinAllowed
	}
	if p.PreviewLimit > 0 {
		opts.PreviewLimit = p.PreviewLimit
	}
	opts.RetryTopLevel = p.RetryTopLevel
	if len(p.ReferenceTerms) > 0 {
		opts.ReferenceTerms = append([]string(nil), p.ReferenceTerms...)
	}
	opts.AnchorMode = decision.ParseAnchorMode(p.AnchorMode)
	return opts
}

// Build assembles the catalog, registry, generator and engine from cfg. llm
// is usually a *providers.Manager; nil leaves the engine rule-only.
func Build(cfg config.Config, llm providers.LLMProvider, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := time.Duration(cfg.HTTPTimeoutSecs) * time.Second

	books, err := catalog.New(catalog.Options{
		TTBKey:    cfg.AladinTTBKey,
		LookupURL: cfg.AladinLookupURL,
		SearchURL: cfg.AladinSearchURL,
		Timeout:   timeout,
		CacheSize: cfg.LookupCacheSize,
	}, log.Named("catalog"))
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	hints, err := registry.New(registry.Options{
		CertKey:   cfg.NLKCertKey,
		SearchURL: cfg.NLKSearchURL,
		Timeout:   timeout,
		CacheSize: cfg.LookupCacheSize,
	}, log.Named("registry"))
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	opts := EngineOptions(cfg.Pipeline)
	var model decision.CandidateSource
	if llm != nil {
		model = generator.New(llm, generator.Options{
			PreviewLimit:     opts.PreviewLimit,
			MultiPerspective: cfg.Pipeline.MultiPerspective,
		}, log.Named("generator"))
	}
	engine := decision.New(kdc.Default(), model, opts, log.Named("decision"))
	return New(books, hints, engine, log.Named("pipeline")), nil
}
