package flows

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

const sequenceSep = "\x1f"

// MinePatterns finds recurring endpoint sub-sequences independently of
// session grouping: every action's endpoint-id sequence is scanned with
// sliding windows, and sub-sequences repeating across the whole capture
// become pattern flows. This surfaces machine-driven repetition (polling,
// pagination) that session grouping misses.
func (d *Detector) MinePatterns(actions []model.CorrelatedAction, catalog []model.Endpoint) []model.Flow {
	resolve := newResolver(catalog)

	sequences := make([][]string, 0, len(actions))
	for _, action := range actions {
		seq := make([]string, 0, len(action.Exchanges))
		for _, ref := range action.Exchanges {
			if id := resolve.resolve(ref.Method, ref.URL); id != "" {
				seq = append(seq, id)
			}
		}
		if len(seq) >= d.cfg.MinWindow {
			sequences = append(sequences, seq)
		}
	}

	counts := make(map[string]int)
	for _, seq := range sequences {
		for size := d.cfg.MinWindow; size <= d.cfg.MaxWindow && size <= len(seq); size++ {
			for start := 0; start+size <= len(seq); start++ {
				key := strings.Join(seq[start:start+size], sequenceSep)
				counts[key]++
			}
		}
	}

	keys := make([]string, 0, len(counts))
	for key, count := range counts {
		if count >= d.cfg.MinOccurrences {
			keys = append(keys, key)
		}
	}
	// Longest first so shorter windows contained in an already-emitted
	// pattern are dropped as noise.
	sort.Slice(keys, func(i, j int) bool {
		li := strings.Count(keys[i], sequenceSep)
		lj := strings.Count(keys[j], sequenceSep)
		if li != lj {
			return li > lj
		}
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	flows := make([]model.Flow, 0)
	emitted := make([]string, 0)
	for _, key := range keys {
		contained := false
		for _, prior := range emitted {
			if strings.Contains(prior, key) {
				contained = true
				break
			}
		}
		if contained {
			continue
		}
		emitted = append(emitted, key)

		ids := strings.Split(key, sequenceSep)
		flow := model.Flow{
			ID:          d.ids(),
			Name:        fmt.Sprintf("Recurring pattern %d", len(flows)+1),
			Description: fmt.Sprintf("%d-step sequence observed %d times", len(ids), counts[key]),
			Tags:        []string{"pattern", "recurring"},
			Steps:       make([]model.FlowStep, 0, len(ids)),
		}
		for order, endpointID := range ids {
			flow.Steps = append(flow.Steps, model.FlowStep{
				Order:      order,
				EndpointID: endpointID,
			})
		}
		flows = append(flows, flow)
	}

	d.log.Infof("mined %d recurring patterns from %d sequences", len(flows), len(sequences))
	return flows
}
