package endpoints

import (
	"sort"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

// Merge folds a newly captured batch into an existing catalog. Endpoints
// match by id (a content hash of method+host+template, so ids are stable
// across captures). On match: example ids are unioned, hit counts summed,
// first/last seen widened, and the average latency recomputed as the mean
// of the two prior averages. That last step is an approximation, not a
// sample-weighted running mean; it is preserved for compatibility.
func (e *Extractor) Merge(existing []model.Endpoint, exchanges []model.Exchange) []model.Endpoint {
	incoming := e.Extract(exchanges)

	byID := make(map[string]int, len(existing))
	merged := make([]model.Endpoint, len(existing))
	copy(merged, existing)
	for i := range merged {
		byID[merged[i].ID] = i
	}

	for _, ep := range incoming {
		idx, ok := byID[ep.ID]
		if !ok {
			byID[ep.ID] = len(merged)
			merged = append(merged, ep)
			continue
		}
		mergeInto(&merged[idx], &ep)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Host != merged[j].Host {
			return merged[i].Host < merged[j].Host
		}
		if merged[i].PathTemplate != merged[j].PathTemplate {
			return merged[i].PathTemplate < merged[j].PathTemplate
		}
		return merged[i].Method < merged[j].Method
	})

	e.log.Infof("merged %d incoming endpoints into catalog of %d", len(incoming), len(merged))
	return merged
}

// mergeInto folds src into dst (same endpoint id).
func mergeInto(dst, src *model.Endpoint) {
	dst.ExampleExchangeIDs = unionStrings(dst.ExampleExchangeIDs, src.ExampleExchangeIDs)
	dst.Tags = unionStrings(dst.Tags, src.Tags)
	dst.AuthRequired = dst.AuthRequired || src.AuthRequired

	dst.PathParameters = mergeParameters(dst.PathParameters, src.PathParameters)
	dst.QueryParameters = mergeParameters(dst.QueryParameters, src.QueryParameters)
	dst.HeaderParameters = mergeParameters(dst.HeaderParameters, src.HeaderParameters)
	dst.Responses = mergeResponses(dst.Responses, src.Responses)
	if dst.RequestBody == nil {
		dst.RequestBody = src.RequestBody
	}

	a, b := &dst.Metadata, &src.Metadata
	a.HitCount += b.HitCount
	if !b.FirstSeen.IsZero() && (a.FirstSeen.IsZero() || b.FirstSeen.Before(a.FirstSeen)) {
		a.FirstSeen = b.FirstSeen
	}
	if b.LastSeen.After(a.LastSeen) {
		a.LastSeen = b.LastSeen
	}
	// Average-of-averages, by contract.
	a.AverageLatency = (a.AverageLatency + b.AverageLatency) / 2
	a.SuccessRate = (a.SuccessRate + b.SuccessRate) / 2
}

func mergeParameters(dst, src []model.Parameter) []model.Parameter {
	index := make(map[string]int, len(dst))
	for i, p := range dst {
		index[p.Name] = i
	}
	for _, p := range src {
		i, ok := index[p.Name]
		if !ok {
			index[p.Name] = len(dst)
			dst = append(dst, p)
			continue
		}
		for _, v := range p.ObservedValues {
			dst[i].ObservedValues = appendObserved(dst[i].ObservedValues, v)
		}
		dst[i].Required = dst[i].Required && p.Required
		if dst[i].Example == "" {
			dst[i].Example = p.Example
		}
	}
	return dst
}

func mergeResponses(dst, src []model.ResponseSchema) []model.ResponseSchema {
	index := make(map[int]int, len(dst))
	for i, r := range dst {
		index[r.Status] = i
	}
	for _, r := range src {
		i, ok := index[r.Status]
		if !ok {
			index[r.Status] = len(dst)
			dst = append(dst, r)
			continue
		}
		for _, example := range r.Examples {
			if len(dst[i].Examples) < maxResponseExamples {
				dst[i].Examples = append(dst[i].Examples, example)
			}
		}
	}
	sort.Slice(dst, func(i, j int) bool { return dst[i].Status < dst[j].Status })
	return dst
}

func unionStrings(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if !seen[s] {
			seen[s] = true
			dst = append(dst, s)
		}
	}
	return dst
}

func appendObserved(values []string, v string) []string {
	if len(values) >= model.MaxObservedValues {
		return values
	}
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
