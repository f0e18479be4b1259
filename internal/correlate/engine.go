// Package correlate aligns captured user actions with HTTP exchanges and
// navigations using time windows, pairs raw request/response streams, and
// builds the navigation tree for a capture.
package correlate

import (
	"sort"
	"time"

	"github.com/PentesterFlow/apimapper/internal/logger"
	"github.com/PentesterFlow/apimapper/internal/urlutil"
	"github.com/PentesterFlow/apimapper/pkg/model"
)

// Defaults for the correlation windows.
const (
	DefaultActionWindow   = 10 * time.Second
	DefaultResponseWindow = 30 * time.Second
)

// Config holds correlation window settings.
type Config struct {
	// ActionWindow bounds how long after an action an exchange may start
	// and still be attributed to it.
	ActionWindow time.Duration
	// ResponseWindow bounds the gap allowed when pairing a response to
	// the latest preceding request on the same URL.
	ResponseWindow time.Duration
}

// DefaultConfig returns the default correlation windows.
func DefaultConfig() Config {
	return Config{
		ActionWindow:   DefaultActionWindow,
		ResponseWindow: DefaultResponseWindow,
	}
}

// Engine correlates the capture's event streams.
type Engine struct {
	cfg Config
	log *logger.Logger
}

// NewEngine creates a correlation engine.
func NewEngine(cfg Config, log *logger.Logger) *Engine {
	if cfg.ActionWindow <= 0 {
		cfg.ActionWindow = DefaultActionWindow
	}
	if cfg.ResponseWindow <= 0 {
		cfg.ResponseWindow = DefaultResponseWindow
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{cfg: cfg, log: log.WithComponent("correlate")}
}

// Correlate attributes exchanges and navigations to user actions. Each
// action owns the window [action.at, windowEnd) where windowEnd is the
// next action's timestamp when that is closer than the action window,
// otherwise action.at + window. An action with nothing in its window
// yields an empty mapping, not an error.
func (e *Engine) Correlate(actions []model.UserAction, navigations []model.Navigation, exchanges []model.Exchange) []model.CorrelatedAction {
	sorted := make([]model.UserAction, len(actions))
	copy(sorted, actions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	result := make([]model.CorrelatedAction, 0, len(sorted))
	for i, action := range sorted {
		windowEnd := action.Timestamp.Add(e.cfg.ActionWindow)
		if i+1 < len(sorted) && sorted[i+1].Timestamp.Before(windowEnd) {
			windowEnd = sorted[i+1].Timestamp
		}

		ca := model.CorrelatedAction{
			ActionID:  action.ID,
			Timestamp: action.Timestamp,
			Type:      action.Type,
			Payload:   action.Payload,
			Exchanges: make([]model.ExchangeRef, 0),
		}

		for j := range exchanges {
			ex := &exchanges[j]
			if !inWindow(ex.StartedAt, action.Timestamp, windowEnd) {
				continue
			}
			ref := model.ExchangeRef{
				ExchangeID: ex.ID,
				URL:        urlutil.Normalize(ex.Request.URL),
				Method:     ex.Request.Method,
			}
			if ex.Response != nil {
				ref.Status = ex.Response.Status
				ref.IsRedirect = ex.Response.IsRedirect()
			}
			ca.Exchanges = append(ca.Exchanges, ref)
		}

		// First navigation in the window is the action's outcome;
		// later same-window navigations are its redirect hops.
		for _, nav := range navigations {
			if !inWindow(nav.Timestamp, action.Timestamp, windowEnd) {
				continue
			}
			if ca.Navigation == nil {
				ca.Navigation = &model.NavigationOutcome{
					URL:    urlutil.Normalize(nav.URL),
					Status: nav.Status,
				}
				continue
			}
			ca.Navigation.RedirectChain = append(ca.Navigation.RedirectChain, urlutil.Normalize(nav.URL))
		}

		result = append(result, ca)
	}

	e.log.Infof("correlated %d actions against %d exchanges", len(result), len(exchanges))
	return result
}

// Pair assembles exchanges from separate request and response streams.
// Requests are indexed by normalized URL for O(1) candidate lookup; each
// response picks the latest request at or before it whose gap is under
// the response window. "Latest before" resolves repeated polling to the
// same endpoint. Unmatched requests become response-less exchanges.
func (e *Engine) Pair(requests []model.RequestEvent, responses []model.ResponseEvent) []model.Exchange {
	sortedReqs := make([]model.RequestEvent, len(requests))
	copy(sortedReqs, requests)
	sort.Slice(sortedReqs, func(i, j int) bool { return sortedReqs[i].Timestamp.Before(sortedReqs[j].Timestamp) })

	byURL := make(map[string][]int)
	for i, req := range sortedReqs {
		key := urlutil.Normalize(req.URL)
		byURL[key] = append(byURL[key], i)
	}

	paired := make(map[int]*model.ResponseEvent, len(responses))
	for r := range responses {
		resp := &responses[r]
		key := urlutil.Normalize(resp.URL)
		best := -1
		for _, i := range byURL[key] {
			if _, taken := paired[i]; taken {
				continue
			}
			ts := sortedReqs[i].Timestamp
			if ts.After(resp.Timestamp) {
				break
			}
			if resp.Timestamp.Sub(ts) > e.cfg.ResponseWindow {
				continue
			}
			best = i
		}
		if best == -1 {
			e.log.Debugf("unmatched response for %s", key)
			continue
		}
		paired[best] = resp
	}

	exchanges := make([]model.Exchange, 0, len(sortedReqs))
	for i, req := range sortedReqs {
		ex := model.Exchange{
			ID:        req.ID,
			StartedAt: req.Timestamp,
			Protocol:  req.Protocol,
			Request: model.Request{
				Method:  req.Method,
				URL:     req.URL,
				Headers: req.Headers,
				Body:    req.Body,
			},
		}
		if resp, ok := paired[i]; ok {
			ex.CompletedAt = resp.Timestamp
			ex.Response = &model.Response{
				Status:  resp.Status,
				Headers: resp.Headers,
				Body:    resp.Body,
			}
			if loc := ex.Response.Header("Location"); loc != "" && ex.Response.IsRedirect() {
				ex.Response.RedirectLocation = loc
			}
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges
}

// inWindow reports start <= t < end.
func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
