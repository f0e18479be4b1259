// Package endpoints turns raw captured exchanges into a deduplicated
// endpoint catalog: one endpoint per (method, host, path template) tuple
// with inferred parameters, schemas, and auth requirements.
package endpoints

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"github.com/PentesterFlow/apimapper/internal/authdetect"
	"github.com/PentesterFlow/apimapper/internal/logger"
	"github.com/PentesterFlow/apimapper/internal/params"
	"github.com/PentesterFlow/apimapper/internal/urlutil"
	"github.com/PentesterFlow/apimapper/pkg/model"
)

const (
	maxRequestExamples  = 3
	maxResponseExamples = 2
	maxExampleBytes     = 512
)

// Static asset extensions are never API endpoints.
var staticExtensions = map[string]bool{
	".js": true, ".css": true, ".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".svg": true, ".ico": true, ".woff": true, ".woff2": true,
	".ttf": true, ".eot": true, ".map": true, ".webp": true, ".mp4": true,
}

// URL path markers that indicate an API even without a JSON response.
var apiPathMarkers = []string{"/api/", "/v1/", "/v2/", "/v3/", "/rest/", "/graphql"}

// Extractor groups exchanges into endpoints.
type Extractor struct {
	log      *logger.Logger
	analyzer *params.Analyzer
}

// NewExtractor creates a new endpoint extractor.
func NewExtractor(log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{
		log:      log.WithComponent("endpoints"),
		analyzer: params.New(),
	}
}

// group accumulates the exchanges folded into one endpoint.
type group struct {
	method    string
	host      string
	template  string
	exchanges []*model.Exchange
	paths     []string
	queries   []map[string]string
	headers   []map[string]string
}

// Extract builds the endpoint catalog from a capture batch in a single
// pass: filter to API-relevant exchanges, group by method + host +
// inferred path template, then build parameters, schemas, and metadata
// per group. Malformed URLs exclude only the offending exchange.
func (e *Extractor) Extract(exchanges []model.Exchange) []model.Endpoint {
	groups := make(map[string]*group)
	order := make([]string, 0)

	for i := range exchanges {
		ex := &exchanges[i]
		parsed := urlutil.Parse(ex.Request.URL)
		if parsed.Host == "" {
			e.log.WithExchange(ex.ID).Debug("excluding exchange with unparseable URL")
			continue
		}
		if !isAPIRelevant(ex, parsed.Path) {
			continue
		}

		template := TemplateForPath(parsed.Path)
		key := ex.Request.Method + " " + parsed.Host + " " + template
		g, ok := groups[key]
		if !ok {
			g = &group{method: ex.Request.Method, host: parsed.Host, template: template}
			groups[key] = g
			order = append(order, key)
		}
		g.exchanges = append(g.exchanges, ex)
		g.paths = append(g.paths, parsed.Path)
		g.queries = append(g.queries, parsed.Query)
		g.headers = append(g.headers, ex.Request.Headers)
	}

	endpoints := make([]model.Endpoint, 0, len(order))
	for _, key := range order {
		endpoints = append(endpoints, e.buildEndpoint(groups[key]))
	}

	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].Host != endpoints[j].Host {
			return endpoints[i].Host < endpoints[j].Host
		}
		if endpoints[i].PathTemplate != endpoints[j].PathTemplate {
			return endpoints[i].PathTemplate < endpoints[j].PathTemplate
		}
		return endpoints[i].Method < endpoints[j].Method
	})

	e.log.Infof("extracted %d endpoints from %d exchanges", len(endpoints), len(exchanges))
	return endpoints
}

// buildEndpoint folds one group into an endpoint.
func (e *Extractor) buildEndpoint(g *group) model.Endpoint {
	ep := model.Endpoint{
		ID:               EndpointID(g.method, g.host, g.template),
		Method:           g.method,
		Host:             g.host,
		PathTemplate:     g.template,
		PathParameters:   e.analyzer.PathParameters(g.template, g.paths),
		QueryParameters:  e.analyzer.QueryParameters(g.queries),
		HeaderParameters: e.analyzer.HeaderParameters(g.headers),
	}

	var (
		first, last time.Time
		latencySum  time.Duration
		completed   int
		successes   int
	)

	for _, ex := range g.exchanges {
		ep.ExampleExchangeIDs = append(ep.ExampleExchangeIDs, ex.ID)

		if first.IsZero() || ex.StartedAt.Before(first) {
			first = ex.StartedAt
		}
		if ex.StartedAt.After(last) {
			last = ex.StartedAt
		}
		if ex.Completed() {
			completed++
			latencySum += ex.Latency()
			if ex.Response.IsSuccess() {
				successes++
			}
		}
	}

	ep.RequestBody = buildRequestBody(g.exchanges)
	ep.Responses = buildResponses(g.exchanges)
	ep.AuthRequired = detectAuthRequired(g.exchanges)

	ep.Metadata = model.EndpointMetadata{
		HitCount:  len(g.exchanges),
		FirstSeen: first,
		LastSeen:  last,
	}
	if completed > 0 {
		ep.Metadata.AverageLatency = latencySum / time.Duration(completed)
	}
	if len(g.exchanges) > 0 {
		ep.Metadata.SuccessRate = float64(successes) / float64(len(g.exchanges))
	}

	return ep
}

// buildRequestBody collects up to maxRequestExamples truncated request
// bodies and a shallow field-type map for JSON bodies.
func buildRequestBody(exchanges []*model.Exchange) *model.BodySchema {
	schema := &model.BodySchema{}
	for _, ex := range exchanges {
		if ex.Request.Body == "" {
			continue
		}
		ct := ex.Request.Header("Content-Type")
		if schema.ContentType == "" || (!strings.Contains(schema.ContentType, "json") && strings.Contains(ct, "json")) {
			schema.ContentType = ct
		}
		if len(schema.Examples) < maxRequestExamples {
			schema.Examples = append(schema.Examples, truncate(ex.Request.Body))
		}
		if schema.Fields == nil && strings.Contains(ct, "json") {
			schema.Fields = jsonFieldTypes(ex.Request.Body)
		}
	}
	if schema.ContentType == "" && len(schema.Examples) == 0 {
		return nil
	}
	return schema
}

// buildResponses collects up to maxResponseExamples truncated bodies per
// distinct response status, preferring a JSON content type as primary.
func buildResponses(exchanges []*model.Exchange) []model.ResponseSchema {
	byStatus := make(map[int]*model.ResponseSchema)
	statuses := make([]int, 0)

	for _, ex := range exchanges {
		if ex.Response == nil {
			continue
		}
		status := ex.Response.Status
		rs, ok := byStatus[status]
		if !ok {
			rs = &model.ResponseSchema{Status: status}
			byStatus[status] = rs
			statuses = append(statuses, status)
		}
		ct := ex.Response.ContentType()
		if rs.ContentType == "" || (!strings.Contains(rs.ContentType, "json") && strings.Contains(ct, "json")) {
			rs.ContentType = ct
		}
		if ex.Response.Body != "" && len(rs.Examples) < maxResponseExamples {
			rs.Examples = append(rs.Examples, truncate(ex.Response.Body))
		}
	}

	sort.Ints(statuses)
	result := make([]model.ResponseSchema, 0, len(statuses))
	for _, status := range statuses {
		result = append(result, *byStatus[status])
	}
	return result
}

// detectAuthRequired scans the group's exchanges for the first
// Authorization header, API-key-like header, or session-like cookie.
// First match wins; no further refinement.
func detectAuthRequired(exchanges []*model.Exchange) bool {
	for _, ex := range exchanges {
		for name, value := range ex.Request.Headers {
			lower := strings.ToLower(name)
			if lower == "authorization" {
				return true
			}
			if authdetect.IsAPIKeyHeader(lower) {
				return true
			}
			if lower == "cookie" && hasSessionCookie(value) {
				return true
			}
		}
	}
	return false
}

func hasSessionCookie(header string) bool {
	for _, pair := range strings.Split(header, ";") {
		name, _, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && authdetect.IsSessionCookie(name) {
			return true
		}
	}
	return false
}

// isAPIRelevant filters exchanges worth cataloging: not a static asset,
// and either a JSON response, an API-marked path, or a mutating method.
func isAPIRelevant(ex *model.Exchange, path string) bool {
	lower := strings.ToLower(path)
	if idx := strings.LastIndex(lower, "."); idx != -1 {
		if staticExtensions[lower[idx:]] {
			return false
		}
	}

	if ex.Response != nil && strings.Contains(ex.Response.ContentType(), "json") {
		return true
	}
	for _, marker := range apiPathMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	switch ex.Request.Method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}

// EndpointID returns the deterministic id for a (method, host, template)
// tuple: a content hash, so repeated extractions and merges agree.
func EndpointID(method, host, template string) string {
	h := fnv.New64a()
	h.Write([]byte(method))
	h.Write([]byte{'|'})
	h.Write([]byte(host))
	h.Write([]byte{'|'})
	h.Write([]byte(template))
	return fmt.Sprintf("ep_%016x", h.Sum64())
}

// jsonFieldTypes shallowly types the top-level keys of a JSON object body.
func jsonFieldTypes(body string) map[string]model.ParameterType {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil
	}
	fields := make(map[string]model.ParameterType, len(obj))
	for key, value := range obj {
		switch v := value.(type) {
		case string:
			fields[key] = model.TypeString
		case float64:
			if v == float64(int64(v)) {
				fields[key] = model.TypeInteger
			} else {
				fields[key] = model.TypeNumber
			}
		case bool:
			fields[key] = model.TypeBoolean
		case []interface{}:
			fields[key] = model.TypeArray
		case map[string]interface{}:
			fields[key] = model.TypeObject
		default:
			fields[key] = model.TypeString
		}
	}
	return fields
}

func truncate(s string) string {
	if len(s) > maxExampleBytes {
		return s[:maxExampleBytes]
	}
	return s
}
