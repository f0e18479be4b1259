package capture

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

// Minimal HAR 1.2 shapes; only the fields the pipeline needs.
type harFile struct {
	Log harLog `json:"log"`
}

type harLog struct {
	Entries []harEntry `json:"entries"`
}

type harEntry struct {
	StartedDateTime string      `json:"startedDateTime"`
	Time            float64     `json:"time"` // milliseconds
	Request         harRequest  `json:"request"`
	Response        harResponse `json:"response"`
}

type harRequest struct {
	Method      string    `json:"method"`
	URL         string    `json:"url"`
	Headers     []harPair `json:"headers"`
	PostData    *harPost  `json:"postData,omitempty"`
	HTTPVersion string    `json:"httpVersion"`
}

type harResponse struct {
	Status      int        `json:"status"`
	Headers     []harPair  `json:"headers"`
	Content     harContent `json:"content"`
	RedirectURL string     `json:"redirectURL"`
}

type harPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type harPost struct {
	Text string `json:"text"`
}

type harContent struct {
	Text string `json:"text"`
}

// ReadHAR converts a HAR 1.2 archive into a capture batch. Entries with
// unparseable timestamps are skipped rather than failing the import.
func ReadHAR(r io.Reader) (*Capture, error) {
	var har harFile
	if err := json.NewDecoder(r).Decode(&har); err != nil {
		return nil, fmt.Errorf("failed to decode HAR: %w", err)
	}

	c := &Capture{Exchanges: make([]model.Exchange, 0, len(har.Log.Entries))}
	for i, entry := range har.Log.Entries {
		started, err := time.Parse(time.RFC3339, entry.StartedDateTime)
		if err != nil {
			continue
		}

		ex := model.Exchange{
			ID:        fmt.Sprintf("har_%d", i+1),
			StartedAt: started,
			Protocol:  entry.Request.HTTPVersion,
			Request: model.Request{
				Method:  entry.Request.Method,
				URL:     entry.Request.URL,
				Headers: pairsToMap(entry.Request.Headers),
			},
		}
		if entry.Request.PostData != nil {
			ex.Request.Body = entry.Request.PostData.Text
		}
		if entry.Response.Status > 0 {
			ex.CompletedAt = started.Add(time.Duration(entry.Time * float64(time.Millisecond)))
			ex.Response = &model.Response{
				Status:           entry.Response.Status,
				Headers:          pairsToMap(entry.Response.Headers),
				Body:             entry.Response.Content.Text,
				RedirectLocation: entry.Response.RedirectURL,
			}
		}
		c.Exchanges = append(c.Exchanges, ex)
	}
	return c, nil
}

// WriteHAR renders a capture batch back out as a HAR 1.2 archive, for
// interop with browser devtools and proxy tooling.
func WriteHAR(w io.Writer, c *Capture) error {
	entries := make([]harEntry, 0, len(c.Exchanges))
	for _, ex := range c.Exchanges {
		entry := harEntry{
			StartedDateTime: ex.StartedAt.Format(time.RFC3339),
			Request: harRequest{
				Method:      ex.Request.Method,
				URL:         ex.Request.URL,
				Headers:     mapToPairs(ex.Request.Headers),
				HTTPVersion: ex.Protocol,
			},
		}
		if ex.Request.Body != "" {
			entry.Request.PostData = &harPost{Text: ex.Request.Body}
		}
		if ex.Response != nil {
			entry.Time = float64(ex.Latency()) / float64(time.Millisecond)
			entry.Response = harResponse{
				Status:      ex.Response.Status,
				Headers:     mapToPairs(ex.Response.Headers),
				Content:     harContent{Text: ex.Response.Body},
				RedirectURL: ex.Response.RedirectLocation,
			}
		}
		entries = append(entries, entry)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(harFile{Log: harLog{Entries: entries}})
}

func mapToPairs(headers map[string]string) []harPair {
	pairs := make([]harPair, 0, len(headers))
	for name, value := range headers {
		pairs = append(pairs, harPair{Name: name, Value: value})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })
	return pairs
}

func pairsToMap(pairs []harPair) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		if _, ok := m[pair.Name]; !ok {
			m[pair.Name] = pair.Value
		}
	}
	return m
}
