package graph

import (
	"sort"

	"github.com/PentesterFlow/apimapper/internal/logger"
	"github.com/PentesterFlow/apimapper/pkg/model"
)

// DefaultHubThreshold is the score above which a node is tagged a hub.
const DefaultHubThreshold = 5.0

// centralityBudget is the node count above which betweenness becomes
// expensive (O(V*E)); a warning is logged, never an error.
const centralityBudget = 500

// Node-kind weights applied to the hub score.
var kindWeights = map[model.NodeKind]float64{
	model.NodePage:     1.0,
	model.NodeEndpoint: 0.8,
	model.NodeDocument: 0.6,
	model.NodeForm:     0.7,
}

const defaultKindWeight = 0.3

// HubScore is the structural importance breakdown for one node.
type HubScore struct {
	NodeID      string  `json:"node_id"`
	InDegree    int     `json:"in_degree"`
	OutDegree   int     `json:"out_degree"`
	Betweenness float64 `json:"betweenness"`
	Balance     float64 `json:"balance"`
	Score       float64 `json:"score"`
}

// HubConfig holds hub detection settings.
type HubConfig struct {
	Threshold float64
}

// HubDetector scores nodes by structural importance.
type HubDetector struct {
	cfg HubConfig
	log *logger.Logger
}

// NewHubDetector creates a hub detector.
func NewHubDetector(cfg HubConfig, log *logger.Logger) *HubDetector {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultHubThreshold
	}
	if log == nil {
		log = logger.Nop()
	}
	return &HubDetector{cfg: cfg, log: log.WithComponent("hubs")}
}

// Analyze computes per-node degrees, betweenness centrality, and the
// combined hub score, sorted by descending score.
func (h *HubDetector) Analyze(g *model.Graph) []HubScore {
	if len(g.Nodes) > centralityBudget {
		h.log.Warnf("graph has %d nodes; betweenness is O(V*E) and may be slow", len(g.Nodes))
	}

	index := make(map[string]int, len(g.Nodes))
	for i := range g.Nodes {
		index[g.Nodes[i].ID] = i
	}

	n := len(g.Nodes)
	adjacency := make([][]int, n)
	inDegree := make([]int, n)
	outDegree := make([]int, n)
	for _, edge := range g.Edges {
		from, okFrom := index[edge.From]
		to, okTo := index[edge.To]
		if !okFrom || !okTo {
			continue
		}
		adjacency[from] = append(adjacency[from], to)
		outDegree[from]++
		inDegree[to]++
	}

	betweenness := h.brandes(adjacency, n)

	scores := make([]HubScore, 0, n)
	for i := range g.Nodes {
		in, out := inDegree[i], outDegree[i]

		balance := 0.0
		if in > 0 && out > 0 {
			balance = 1.0 - float64(abs(in-out))/float64(in+out)
		}

		weight, ok := kindWeights[g.Nodes[i].Kind]
		if !ok {
			weight = defaultKindWeight
		}

		score := (0.4*float64(in+out) + 0.3*betweenness[i] + 0.3*balance) * weight
		scores = append(scores, HubScore{
			NodeID:      g.Nodes[i].ID,
			InDegree:    in,
			OutDegree:   out,
			Betweenness: betweenness[i],
			Balance:     balance,
			Score:       score,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores
}

// Tag analyzes the graph and tags nodes above the threshold. Tagging is
// additive and idempotent; existing tags are never duplicated.
func (h *HubDetector) Tag(g *model.Graph) []HubScore {
	scores := h.Analyze(g)
	for _, score := range scores {
		if score.Score <= h.cfg.Threshold {
			continue
		}
		node := g.NodeByID(score.NodeID)
		if node == nil {
			continue
		}
		node.AddTag(hubTag(score))
	}
	return scores
}

// hubTag classifies a hub by its degree shape.
func hubTag(s HubScore) string {
	switch {
	case s.OutDegree > 2*s.InDegree:
		return "hub:homepage"
	case s.InDegree > 5 && s.OutDegree > 5:
		return "hub:navigation"
	case s.InDegree > 2*s.OutDegree:
		return "hub:important"
	default:
		return "hub"
	}
}

// brandes computes betweenness centrality with Brandes' algorithm: one
// BFS per source with forward shortest-path counting, then backward
// dependency accumulation over the visitation stack. The two-pass shape
// is what keeps this O(V*E) instead of naive all-pairs O(V^3). Cycles
// are harmless: BFS distances only ever decrease the frontier.
func (h *HubDetector) brandes(adjacency [][]int, n int) []float64 {
	betweenness := make([]float64, n)

	for s := 0; s < n; s++ {
		stack := make([]int, 0, n)
		preds := make([][]int, n)
		sigma := make([]float64, n)
		dist := make([]int, n)
		for i := range dist {
			dist[i] = -1
		}
		sigma[s] = 1
		dist[s] = 0

		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range adjacency[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		delta := make([]float64, n)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				if sigma[w] == 0 {
					// A predecessor implies at least one shortest path.
					h.log.Debugf("zero path count at node %d; skipping dependency", w)
					continue
				}
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				betweenness[w] += delta[w]
			}
		}
	}

	return betweenness
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
