package detect

import (
	"sync"

	"github.com/peskyphilly/crucible-mvp/internal/lexicon"
	"github.com/peskyphilly/crucible-mvp/internal/logger"
	"github.com/peskyphilly/crucible-mvp/internal/quantity"
	"github.com/peskyphilly/crucible-mvp/internal/substantive"
	"go.uber.org/zap"
)

// DefaultPolicyThreshold is the monetary threshold the aggregate rules
// compare against when the caller does not override it.
const DefaultPolicyThreshold = 10000

// Config contains detection engine configuration.
type Config struct {
	// PolicyThreshold overrides DefaultPolicyThreshold when positive.
	PolicyThreshold float64

	// Registry overrides the default pattern registry when non-nil.
	Registry *lexicon.Registry
}

// Engine runs the five detection modules against a rationale and merges
// their verdicts. Each call is an independent, pure computation: the
// engine holds only immutable configuration.
type Engine struct {
	registry  *lexicon.Registry
	parser    *quantity.Parser
	filter    *substantive.Filter
	modules   []Module
	threshold float64
	logger    *logger.Logger
}

// New creates a detection engine instance.
func New(cfg Config, log *logger.Logger) *Engine {
	registry := cfg.Registry
	if registry == nil {
		registry = lexicon.Defaults()
	}

	threshold := cfg.PolicyThreshold
	if threshold <= 0 {
		threshold = DefaultPolicyThreshold
	}

	engine := &Engine{
		registry:  registry,
		parser:    quantity.NewParser(registry.AggregateMarkers),
		filter:    substantive.NewFilter(registry.SubstantiveIndicators, registry.ProceduralContexts),
		threshold: threshold,
		logger:    log,
	}

	// Fixed evaluation order; flagged_modules preserves it.
	engine.modules = []Module{
		NewExplicitDeference(registry.ExplicitDeference),
		NewEuphemizedAutomation(registry.EuphemizedAutomation, registry.EvidenceOfAbsence),
		NewPolicyInversion(registry.PolicyCitation, registry.ThresholdAbsolutism, registry.NegativeOutcome),
		NewDistributiveWarrant(registry.Distributive, registry.NegativeOutcome),
		NewAggregateBlindness(registry.AggregateAnalysis, registry.Distributive),
	}

	log.Info("Detection engine initialized",
		zap.Int("modules", len(engine.modules)),
		zap.Float64("policy_threshold", threshold),
	)

	return engine
}

// Analyze runs all modules against the rationale using the configured
// policy threshold.
func (e *Engine) Analyze(text string) CombinedResult {
	return e.AnalyzeWithThreshold(text, e.threshold)
}

// AnalyzeWithThreshold runs all modules with a per-call threshold. The
// modules are mutually independent and evaluated concurrently; results
// are reassembled in module declaration order.
func (e *Engine) AnalyzeWithThreshold(text string, threshold float64) CombinedResult {
	if threshold <= 0 {
		threshold = e.threshold
	}

	normalized := lexicon.Normalize(text)

	in := Input{
		Normalized:  normalized,
		Substantive: e.filter.Detect(normalized),
		Quantities:  e.parser.Extract(normalized),
		Threshold:   threshold,
	}

	results := make([]ModuleResult, len(e.modules))
	var wg sync.WaitGroup
	for i, module := range e.modules {
		wg.Add(1)
		go func(i int, module Module) {
			defer wg.Done()
			results[i] = module.Evaluate(in)
		}(i, module)
	}
	wg.Wait()

	combined := e.combine(results)

	e.logger.Debug("Rationale analyzed",
		zap.Bool("flagged", combined.Flagged),
		zap.Int("match_count", combined.MatchCount),
		zap.Int("flagged_modules", len(combined.FlaggedModules)),
	)

	return combined
}

// combine merges module results. Only flagged modules contribute
// matches, counts, and locations; the breakdown covers all modules.
func (e *Engine) combine(results []ModuleResult) CombinedResult {
	combined := CombinedResult{
		Matches:            []string{},
		MatchLocations:     []lexicon.Location{},
		FlaggedModules:     []DetectionType{},
		DetectionBreakdown: make(map[DetectionType]ModuleResult, len(results)),
	}

	var allLabels []string
	for _, r := range results {
		combined.DetectionBreakdown[r.DetectionType] = r
		if !r.Flagged {
			continue
		}

		combined.Flagged = true
		combined.FlaggedModules = append(combined.FlaggedModules, r.DetectionType)
		combined.MatchCount += r.MatchCount
		combined.MatchLocations = append(combined.MatchLocations, r.MatchLocations...)
		allLabels = append(allLabels, r.Matches...)
	}

	combined.Matches = dedupe(allLabels)
	return combined
}
