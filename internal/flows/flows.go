// Package flows mines multi-step API flows from a correlated capture:
// session-bound flows grouped by action time proximity, and recurring
// endpoint patterns found by sliding-window sequence mining.
package flows

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PentesterFlow/apimapper/internal/endpoints"
	"github.com/PentesterFlow/apimapper/internal/logger"
	"github.com/PentesterFlow/apimapper/internal/urlutil"
	"github.com/PentesterFlow/apimapper/pkg/model"
)

// Defaults for flow mining.
const (
	DefaultSessionGap     = 60 * time.Second
	DefaultMinActions     = 2
	DefaultMinWindow      = 2
	DefaultMaxWindow      = 5
	DefaultMinOccurrences = 2
)

// Response keys and headers scanned for extractable variables.
var extractableKeys = []string{"access_token", "token", "id", "user_id", "session_id", "refresh_token"}
var extractableHeaders = []string{"Set-Cookie", "X-Auth-Token", "Location"}

// Parameter names treated as user-supplied inputs when no extracted
// variable matches.
var userInputNames = map[string]bool{
	"username": true, "user": true, "email": true, "password": true,
	"query": true, "q": true, "search": true, "name": true,
	"phone": true, "message": true, "comment": true, "title": true,
	"description": true, "address": true,
}

// Config holds flow mining settings.
type Config struct {
	// SessionGap is the idle time that starts a new session-bound group.
	SessionGap time.Duration
	// MinActions is the minimum group size; smaller groups are discarded.
	MinActions int
	// MinWindow and MaxWindow bound the sliding-window sizes for pattern
	// mining.
	MinWindow int
	MaxWindow int
	// MinOccurrences is the repetition threshold for a recurring pattern.
	MinOccurrences int
}

// DefaultConfig returns the default mining settings.
func DefaultConfig() Config {
	return Config{
		SessionGap:     DefaultSessionGap,
		MinActions:     DefaultMinActions,
		MinWindow:      DefaultMinWindow,
		MaxWindow:      DefaultMaxWindow,
		MinOccurrences: DefaultMinOccurrences,
	}
}

// IDSource supplies flow ids. Caller-owned so ids stay out of global
// state and tests can pin them.
type IDSource func() string

// Detector mines flows from correlated actions.
type Detector struct {
	cfg Config
	log *logger.Logger
	ids IDSource
}

// NewDetector creates a flow detector.
func NewDetector(cfg Config, log *logger.Logger, ids IDSource) *Detector {
	if cfg.SessionGap <= 0 {
		cfg.SessionGap = DefaultSessionGap
	}
	if cfg.MinActions <= 0 {
		cfg.MinActions = DefaultMinActions
	}
	if cfg.MinWindow < 2 {
		cfg.MinWindow = DefaultMinWindow
	}
	if cfg.MaxWindow < cfg.MinWindow {
		cfg.MaxWindow = DefaultMaxWindow
	}
	if cfg.MinOccurrences <= 0 {
		cfg.MinOccurrences = DefaultMinOccurrences
	}
	if log == nil {
		log = logger.Nop()
	}
	if ids == nil {
		n := 0
		ids = func() string {
			n++
			return fmt.Sprintf("flow_%d", n)
		}
	}
	return &Detector{cfg: cfg, log: log.WithComponent("flows"), ids: ids}
}

// Detect runs both mining strategies and returns session-bound flows
// followed by recurring-pattern flows.
func (d *Detector) Detect(actions []model.CorrelatedAction, exchanges []model.Exchange, catalog []model.Endpoint) []model.Flow {
	flows := d.DetectSessions(actions, exchanges, catalog)
	return append(flows, d.MinePatterns(actions, catalog)...)
}

// DetectSessions groups correlated actions by time proximity (a gap
// above the session threshold starts a new group, groups below the
// minimum size are discarded) and turns each group's exchanges into
// ordered flow steps with inferred bindings and extractors.
func (d *Detector) DetectSessions(actions []model.CorrelatedAction, exchanges []model.Exchange, catalog []model.Endpoint) []model.Flow {
	sorted := make([]model.CorrelatedAction, len(actions))
	copy(sorted, actions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	byID := make(map[string]*model.Exchange, len(exchanges))
	for i := range exchanges {
		byID[exchanges[i].ID] = &exchanges[i]
	}
	resolve := newResolver(catalog)

	groups := make([][]model.CorrelatedAction, 0)
	var current []model.CorrelatedAction
	for i, action := range sorted {
		if i > 0 && action.Timestamp.Sub(sorted[i-1].Timestamp) > d.cfg.SessionGap {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, action)
	}
	if current != nil {
		groups = append(groups, current)
	}

	flows := make([]model.Flow, 0)
	for _, group := range groups {
		if len(group) < d.cfg.MinActions {
			continue
		}
		if flow := d.buildSessionFlow(group, byID, resolve, len(flows)+1); flow != nil {
			flows = append(flows, *flow)
		}
	}

	d.log.Infof("detected %d session flows from %d actions", len(flows), len(actions))
	return flows
}

// buildSessionFlow turns one action group into a flow, or nil when no
// exchange in the group resolves to a cataloged endpoint.
func (d *Detector) buildSessionFlow(group []model.CorrelatedAction, byID map[string]*model.Exchange, resolve *resolver, ordinal int) *model.Flow {
	flow := &model.Flow{
		ID:    d.ids(),
		Name:  fmt.Sprintf("User flow %d", ordinal),
		Steps: make([]model.FlowStep, 0),
		Tags:  []string{"session"},
	}

	// Variables emitted by earlier steps, by extractor name.
	available := make(map[string]bool)
	order := 0

	for _, action := range group {
		flow.SourceActionIDs = append(flow.SourceActionIDs, action.ActionID)
		for _, ref := range action.Exchanges {
			endpointID := resolve.resolve(ref.Method, ref.URL)
			if endpointID == "" {
				continue
			}

			step := model.FlowStep{
				Order:          order,
				EndpointID:     endpointID,
				Description:    fmt.Sprintf("%s %s", ref.Method, urlutil.PathOf(ref.URL)),
				ExpectedStatus: ref.Status,
				Bindings:       make(map[string]model.Binding),
			}

			for name, value := range stepParameters(ref.URL, resolve.templateOf(endpointID)) {
				step.Bindings[name] = bindParameter(name, value, available)
			}

			if ex, ok := byID[ref.ExchangeID]; ok {
				step.Extractors = detectExtractors(ex)
			}
			for _, extractor := range step.Extractors {
				available[extractor.Name] = true
			}

			flow.Steps = append(flow.Steps, step)
			order++
		}
	}

	if len(flow.Steps) == 0 {
		return nil
	}
	flow.Description = fmt.Sprintf("%d-step flow across %d actions", len(flow.Steps), len(group))
	return flow
}

// bindParameter matches a step parameter against the variables extracted
// so far. Matching is substring containment on names in either direction.
// Failing that, known user-input names become user inputs and anything
// else keeps its observed literal.
func bindParameter(name, value string, available map[string]bool) model.Binding {
	for extractor := range available {
		if containsFold(name, extractor) || containsFold(extractor, name) {
			return model.Binding{Kind: model.BindVariable, Extractor: extractor}
		}
	}
	if userInputNames[strings.ToLower(name)] {
		return model.Binding{
			Kind:        model.BindUser,
			InputName:   name,
			Description: "provided by the user",
		}
	}
	return model.Binding{Kind: model.BindStatic, Value: value}
}

// detectExtractors scans one exchange's response for the fixed set of
// extractable JSON keys and headers.
func detectExtractors(ex *model.Exchange) []model.Extractor {
	if ex.Response == nil {
		return nil
	}

	extractors := make([]model.Extractor, 0)
	if body := ex.Response.Body; body != "" {
		for _, key := range extractableKeys {
			if strings.Contains(body, `"`+key+`"`) {
				extractors = append(extractors, model.Extractor{
					Name:   key,
					Source: model.ExtractBody,
					Key:    key,
				})
			}
		}
	}
	for _, header := range extractableHeaders {
		if ex.Response.Header(header) != "" {
			extractors = append(extractors, model.Extractor{
				Name:   strings.ToLower(strings.ReplaceAll(header, "-", "_")),
				Source: model.ExtractHeader,
				Key:    header,
			})
		}
	}
	return extractors
}

// stepParameters collects a step's observable parameters: query
// parameters from the URL plus path parameter values recovered from the
// endpoint's template.
func stepParameters(rawURL, template string) map[string]string {
	parsed := urlutil.Parse(rawURL)
	result := make(map[string]string, len(parsed.Query))
	for name, value := range parsed.Query {
		result[name] = value
	}

	tmplSegs := urlutil.SplitPath(template)
	pathSegs := parsed.Segments
	if len(tmplSegs) == len(pathSegs) {
		for i, seg := range tmplSegs {
			if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
				result[seg[1:len(seg)-1]] = pathSegs[i]
			}
		}
	}
	return result
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// resolver maps an observed method+URL back to a cataloged endpoint via
// the deterministic endpoint id of its inferred template.
type resolver struct {
	known     map[string]bool
	templates map[string]string
}

func newResolver(catalog []model.Endpoint) *resolver {
	r := &resolver{
		known:     make(map[string]bool, len(catalog)),
		templates: make(map[string]string, len(catalog)),
	}
	for _, ep := range catalog {
		r.known[ep.ID] = true
		r.templates[ep.ID] = ep.PathTemplate
	}
	return r
}

func (r *resolver) resolve(method, rawURL string) string {
	parsed := urlutil.Parse(rawURL)
	if parsed.Host == "" {
		return ""
	}
	id := endpoints.EndpointID(method, parsed.Host, endpoints.TemplateForPath(parsed.Path))
	if !r.known[id] {
		return ""
	}
	return id
}

func (r *resolver) templateOf(endpointID string) string {
	return r.templates[endpointID]
}
