// Package graph builds the navigation/resource graph for a capture and
// provides the structural analyses over it: hub detection via betweenness
// centrality and semantic diffing between snapshots.
//
// Graphs are flat arenas keyed by node id (the normalized URL); all
// traversals carry explicit visited sets because redirect loops make
// cycles legal.
package graph

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/PentesterFlow/apimapper/internal/logger"
	"github.com/PentesterFlow/apimapper/internal/urlutil"
	"github.com/PentesterFlow/apimapper/pkg/model"
)

// expectedNodes sizes the bloom prefilter; captures rarely exceed this.
const expectedNodes = 100000

// Builder assembles a graph from capture events.
type Builder struct {
	log    *logger.Logger
	seen   *bloom.BloomFilter
	nodes  map[string]int
	edges  map[string]bool
	graph  model.Graph
	nextID int
}

// NewBuilder creates a graph builder.
func NewBuilder(log *logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		log:   log.WithComponent("graph"),
		seen:  bloom.NewWithEstimates(expectedNodes, 0.01),
		nodes: make(map[string]int),
		edges: make(map[string]bool),
	}
}

// Build derives a graph from exchanges and navigations: one node per
// distinct normalized URL, link/redirect edges from navigation adjacency,
// and api_call edges from Referer headers on API exchanges.
func (b *Builder) Build(exchanges []model.Exchange, navigations []model.Navigation) *model.Graph {
	for i := range exchanges {
		ex := &exchanges[i]
		url := urlutil.Normalize(ex.Request.URL)
		if urlutil.HostOf(url) == "" {
			b.log.WithExchange(ex.ID).Debug("skipping exchange with unparseable URL")
			continue
		}
		b.ensureNode(url, classifyExchange(ex))

		if referer := ex.Request.Header("Referer"); referer != "" {
			from := urlutil.Normalize(referer)
			if urlutil.HostOf(from) != "" {
				b.ensureNode(from, model.NodePage)
				b.addEdge(model.EdgeAPICall, from, url, ex.Request.Method)
			}
		}
	}

	for _, nav := range navigations {
		to := urlutil.Normalize(nav.URL)
		if to == "" {
			continue
		}
		b.ensureNode(to, model.NodePage)
		from := urlutil.Normalize(nav.FromURL)
		if from == "" {
			continue
		}
		b.ensureNode(from, model.NodePage)
		kind := model.EdgeLink
		if nav.Status >= 300 && nav.Status < 400 {
			kind = model.EdgeRedirect
		}
		b.addEdge(kind, from, to, "")
	}

	b.log.Infof("built graph with %d nodes and %d edges", len(b.graph.Nodes), len(b.graph.Edges))
	return &b.graph
}

// ensureNode registers a URL, returning its node index. The bloom filter
// short-circuits the common already-seen case; the exact map stays
// authoritative since bloom membership can false-positive.
func (b *Builder) ensureNode(url string, kind model.NodeKind) int {
	if b.seen.TestString(url) {
		if idx, ok := b.nodes[url]; ok {
			// Upgrade resource nodes when a later event shows more
			// specific intent (e.g., a navigation to a fetched URL).
			if b.graph.Nodes[idx].Kind == model.NodeResource && kind != model.NodeResource {
				b.graph.Nodes[idx].Kind = kind
			}
			return idx
		}
	}
	b.seen.AddString(url)

	idx := len(b.graph.Nodes)
	b.nodes[url] = idx
	b.graph.Nodes = append(b.graph.Nodes, model.Node{
		ID:   url,
		Kind: kind,
		URL:  url,
	})
	return idx
}

// addEdge appends a deduplicated directed edge.
func (b *Builder) addEdge(kind model.EdgeKind, from, to, label string) {
	key := string(kind) + "|" + from + "|" + to
	if b.edges[key] {
		return
	}
	b.edges[key] = true

	b.nextID++
	b.graph.Edges = append(b.graph.Edges, model.Edge{
		ID:    fmt.Sprintf("e_%d", b.nextID),
		Kind:  kind,
		From:  from,
		To:    to,
		Label: label,
	})
}

// classifyExchange maps an exchange to a node kind from its response
// content type and URL shape.
func classifyExchange(ex *model.Exchange) model.NodeKind {
	path := strings.ToLower(urlutil.PathOf(ex.Request.URL))

	if ex.Response != nil {
		ct := ex.Response.ContentType()
		switch {
		case strings.Contains(ct, "html"):
			return model.NodePage
		case strings.Contains(ct, "json"), strings.Contains(ct, "xml"):
			return model.NodeEndpoint
		case strings.Contains(ct, "pdf"), strings.Contains(ct, "msword"),
			strings.Contains(ct, "officedocument"):
			return model.NodeDocument
		}
	}

	for _, marker := range []string{"/api/", "/v1/", "/v2/", "/v3/", "/graphql"} {
		if strings.Contains(path, marker) {
			return model.NodeEndpoint
		}
	}
	if strings.HasSuffix(path, ".pdf") || strings.HasSuffix(path, ".doc") || strings.HasSuffix(path, ".docx") {
		return model.NodeDocument
	}
	return model.NodeResource
}
