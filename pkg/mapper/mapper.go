// Package mapper is the public entry point of the analysis pipeline. It
// turns captured HTTP traffic and user actions into an API blueprint,
// builds structural graphs of the target, scores hub pages, and diffs
// graphs across capture runs.
package mapper

import (
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/PentesterFlow/apimapper/internal/authdetect"
	"github.com/PentesterFlow/apimapper/internal/correlate"
	"github.com/PentesterFlow/apimapper/internal/endpoints"
	apierrors "github.com/PentesterFlow/apimapper/internal/errors"
	"github.com/PentesterFlow/apimapper/internal/flows"
	"github.com/PentesterFlow/apimapper/internal/graph"
	"github.com/PentesterFlow/apimapper/internal/logger"
	"github.com/PentesterFlow/apimapper/pkg/model"
)

// HubScore is a node's structural importance breakdown.
type HubScore = graph.HubScore

// DiffResult lists the structural changes between two graphs.
type DiffResult = graph.DiffResult

// Mapper is the analysis pipeline orchestrator.
type Mapper struct {
	config *Config
	logger *logger.Logger
	ids    flows.IDSource

	engine    *correlate.Engine
	extractor *endpoints.Extractor
	auth      *authdetect.Detector
	flows     *flows.Detector
	hubs      *graph.HubDetector
}

// New creates a mapper with the given options.
func New(opts ...Option) (*Mapper, error) {
	m := &Mapper{
		config: DefaultConfig(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// Validate config
	if err := m.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize logger based on config
	if m.logger == nil {
		logLevel := logger.InfoLevel
		if m.config.Debug {
			logLevel = logger.DebugLevel
		} else if !m.config.Verbose {
			logLevel = logger.WarnLevel
		}
		m.logger = logger.New(logger.Config{
			Level:     logLevel,
			Pretty:    true,
			Component: "mapper",
		})
	}

	if m.ids == nil {
		m.ids = uuid.NewString
	}

	m.engine = correlate.NewEngine(correlate.Config{
		ActionWindow:   m.config.Correlation.ActionWindow,
		ResponseWindow: m.config.Correlation.ResponseWindow,
	}, m.logger)
	m.extractor = endpoints.NewExtractor(m.logger)
	m.auth = authdetect.New()
	m.flows = flows.NewDetector(flows.Config{
		SessionGap:     m.config.Flows.SessionGap,
		MinActions:     m.config.Flows.MinActions,
		MinWindow:      m.config.Flows.MinWindow,
		MaxWindow:      m.config.Flows.MaxWindow,
		MinOccurrences: m.config.Flows.MinOccurrences,
	}, m.logger, m.ids)
	m.hubs = graph.NewHubDetector(graph.HubConfig{
		Threshold: m.config.Hubs.Threshold,
	}, m.logger)

	return m, nil
}

// Analyze runs the full pipeline over one capture batch and returns the
// resulting blueprint: the endpoint catalog, detected auth patterns,
// and mined flows.
func (m *Mapper) Analyze(exchanges []model.Exchange, actions []model.UserAction, navigations []model.Navigation) (*model.Blueprint, error) {
	if len(exchanges) == 0 && len(actions) == 0 {
		// An empty batch is not a failure; every stage returns empty
		// results and the host reports "nothing detected".
		m.logger.Debug(apierrors.New(apierrors.EmptyInput, "capture", "analyze", "capture batch holds no exchanges and no actions", nil).Error())
	}
	started := time.Now()

	correlated := m.engine.Correlate(actions, navigations, exchanges)
	catalog := m.extractor.Extract(exchanges)
	patterns := m.auth.Detect(exchanges)
	mined := m.flows.Detect(correlated, exchanges, catalog)

	now := time.Now()
	bp := &model.Blueprint{
		ID:           m.ids(),
		ProjectID:    m.config.ProjectID,
		Name:         m.config.Name,
		BaseURL:      baseURL(exchanges),
		Endpoints:    catalog,
		AuthPatterns: patterns,
		Flows:        mined,
		Metadata:     buildMetadata(exchanges, catalog, correlated, time.Since(started)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	m.logger.Event(logger.InfoLevel).
		Int("exchanges", len(exchanges)).
		Int("endpoints", len(bp.Endpoints)).
		Int("flows", len(bp.Flows)).
		Msg("analysis complete")
	return bp, nil
}

// Merge folds a later capture batch into an existing blueprint. Endpoint
// identity is content-derived, so re-merging the same traffic converges
// instead of duplicating entries.
func (m *Mapper) Merge(bp *model.Blueprint, exchanges []model.Exchange) (*model.Blueprint, error) {
	if bp == nil {
		return nil, apierrors.New(apierrors.EmptyInput, "blueprint", "merge", "no blueprint to merge into", nil)
	}
	started := time.Now()

	bp.Endpoints = m.extractor.Merge(bp.Endpoints, exchanges)
	bp.AuthPatterns = mergeAuthPatterns(bp.AuthPatterns, m.auth.Detect(exchanges))
	bp.Metadata.ExchangeCount += len(exchanges)
	bp.Metadata.ExcludedCount = bp.Metadata.ExchangeCount - totalHits(bp.Endpoints)
	bp.Metadata.AnalysisDuration += time.Since(started)
	bp.UpdatedAt = time.Now()

	if bp.BaseURL == "" {
		bp.BaseURL = baseURL(exchanges)
	}
	return bp, nil
}

// BuildGraph constructs the structural graph of the captured site.
func (m *Mapper) BuildGraph(exchanges []model.Exchange, navigations []model.Navigation) *model.Graph {
	builder := graph.NewBuilder(m.logger)
	g := builder.Build(exchanges, navigations)
	if m.config.HTMLEnrichment {
		builder.EnrichFromHTML(exchanges)
	}
	return g
}

// Hubs scores every node and tags those above the hub threshold,
// returning the full score breakdown sorted by descending score.
func (m *Mapper) Hubs(g *model.Graph) []HubScore {
	return m.hubs.Tag(g)
}

// Diff reports the structural changes between two capture runs.
func (m *Mapper) Diff(before, after *model.Graph) DiffResult {
	return graph.Compare(before, after)
}

// baseURL picks the most frequent scheme://host across the capture.
func baseURL(exchanges []model.Exchange) string {
	counts := make(map[string]int)
	for _, ex := range exchanges {
		u, err := url.Parse(ex.Request.URL)
		if err != nil || u.Host == "" {
			continue
		}
		counts[u.Scheme+"://"+u.Host]++
	}

	best := ""
	for origin, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && origin < best) {
			best = origin
		}
	}
	return best
}

func buildMetadata(exchanges []model.Exchange, catalog []model.Endpoint, correlated []model.CorrelatedAction, elapsed time.Duration) model.BlueprintMetadata {
	withExchanges := 0
	for _, action := range correlated {
		if len(action.Exchanges) > 0 {
			withExchanges++
		}
	}
	return model.BlueprintMetadata{
		ExchangeCount:    len(exchanges),
		ExcludedCount:    len(exchanges) - totalHits(catalog),
		CorrelatedCount:  withExchanges,
		AnalysisDuration: elapsed,
	}
}

func totalHits(catalog []model.Endpoint) int {
	total := 0
	for _, ep := range catalog {
		total += ep.Metadata.HitCount
	}
	return total
}

// mergeAuthPatterns unions two detections keyed by scheme, keeping the
// earlier pattern for a scheme seen in both.
func mergeAuthPatterns(existing, incoming []model.AuthPattern) []model.AuthPattern {
	seen := make(map[model.AuthScheme]bool, len(existing))
	merged := make([]model.AuthPattern, 0, len(existing)+len(incoming))
	for _, p := range existing {
		seen[p.Scheme] = true
		merged = append(merged, p)
	}
	added := false
	for _, p := range incoming {
		if !seen[p.Scheme] {
			seen[p.Scheme] = true
			merged = append(merged, p)
			added = true
		}
	}
	if added {
		sort.Slice(merged, func(i, j int) bool { return merged[i].Scheme < merged[j].Scheme })
	}
	return merged
}
