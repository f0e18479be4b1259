package correlate

import (
	"sort"

	"github.com/PentesterFlow/apimapper/internal/urlutil"
	"github.com/PentesterFlow/apimapper/pkg/model"
)

// NavNode is one page in the navigation tree with its depth from a root.
type NavNode struct {
	URL     string `json:"url"`
	FromURL string `json:"from_url,omitempty"`
	Depth   int    `json:"depth"`
}

// WebsiteMap is the correlation engine's cross-referenced view of a
// capture: the action timeline plus the navigation structure.
type WebsiteMap struct {
	Actions []model.CorrelatedAction `json:"actions"`
	Tree    []NavNode                `json:"tree,omitempty"`
}

// BuildMap runs action correlation and navigation-tree construction over
// a capture batch.
func (e *Engine) BuildMap(actions []model.UserAction, navigations []model.Navigation, exchanges []model.Exchange) *WebsiteMap {
	return &WebsiteMap{
		Actions: e.Correlate(actions, navigations, exchanges),
		Tree:    e.NavigationTree(navigations),
	}
}

// NavigationTree derives per-page depths from fromUrl adjacency. Depth
// computation carries a visited set; a cycle terminates the walk and
// reports depth 0 for the page that closed it.
func (e *Engine) NavigationTree(navigations []model.Navigation) []NavNode {
	parent := make(map[string]string)
	order := make([]string, 0)
	from := make(map[string]string)

	for _, nav := range navigations {
		url := urlutil.Normalize(nav.URL)
		if url == "" {
			continue
		}
		if _, ok := parent[url]; !ok {
			parent[url] = urlutil.Normalize(nav.FromURL)
			from[url] = urlutil.Normalize(nav.FromURL)
			order = append(order, url)
		}
	}

	depths := make(map[string]int, len(order))
	for _, url := range order {
		depths[url] = depthOf(url, parent, make(map[string]bool))
	}

	nodes := make([]NavNode, 0, len(order))
	for _, url := range order {
		nodes = append(nodes, NavNode{URL: url, FromURL: from[url], Depth: depths[url]})
	}
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Depth < nodes[j].Depth })
	return nodes
}

// depthOf walks the parent chain. Revisiting a URL means a navigation
// loop; the walk stops and reports 0 rather than recursing forever.
func depthOf(url string, parent map[string]string, visited map[string]bool) int {
	if visited[url] {
		return 0
	}
	visited[url] = true

	p, ok := parent[url]
	if !ok || p == "" {
		return 0
	}
	return depthOf(p, parent, visited) + 1
}

// RedirectChain follows redirect navigations starting from a URL. The
// chain is bounded by the number of distinct pages: a redirect cycle
// (A -> B -> A) terminates when a page repeats.
func (e *Engine) RedirectChain(start string, navigations []model.Navigation) []string {
	next := make(map[string]string)
	for _, nav := range navigations {
		if nav.Status >= 300 && nav.Status < 400 {
			fromURL := urlutil.Normalize(nav.FromURL)
			if fromURL != "" {
				if _, ok := next[fromURL]; !ok {
					next[fromURL] = urlutil.Normalize(nav.URL)
				}
			}
		}
	}

	chain := []string{urlutil.Normalize(start)}
	visited := map[string]bool{chain[0]: true}
	current := chain[0]
	for {
		target, ok := next[current]
		if !ok || target == "" {
			break
		}
		if visited[target] {
			e.log.Debugf("redirect cycle at %s", target)
			break
		}
		visited[target] = true
		chain = append(chain, target)
		current = target
	}
	return chain
}
