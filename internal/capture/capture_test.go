package capture

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

func sampleCapture() *Capture {
	started := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	return &Capture{
		Exchanges: []model.Exchange{
			{
				ID:          "ex1",
				StartedAt:   started,
				CompletedAt: started.Add(120 * time.Millisecond),
				Request: model.Request{
					Method:  "GET",
					URL:     "https://example.com/api/items/1",
					Headers: map[string]string{"Accept": "application/json"},
				},
				Response: &model.Response{
					Status:  200,
					Headers: map[string]string{"Content-Type": "application/json"},
					Body:    `{"id":1}`,
				},
			},
		},
		Actions: []model.UserAction{
			{ID: "a1", Timestamp: started, Type: model.ActionClick, PageURL: "https://example.com/"},
		},
		Navigations: []model.Navigation{
			{ID: "n1", Timestamp: started, URL: "https://example.com/items"},
		},
	}
}

func TestWriteRead(t *testing.T) {
	var buf bytes.Buffer
	want := sampleCapture()

	if err := Write(&buf, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(got.Exchanges) != 1 || got.Exchanges[0].ID != "ex1" {
		t.Errorf("Exchanges = %+v", got.Exchanges)
	}
	if got.Exchanges[0].Response == nil || got.Exchanges[0].Response.Status != 200 {
		t.Errorf("Response = %+v", got.Exchanges[0].Response)
	}
	if len(got.Actions) != 1 || got.Actions[0].Type != model.ActionClick {
		t.Errorf("Actions = %+v", got.Actions)
	}
	if len(got.Navigations) != 1 {
		t.Errorf("Navigations = %+v", got.Navigations)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	if _, err := Read(strings.NewReader("not json")); err == nil {
		t.Error("Read accepted malformed input")
	}
}

func TestLoadFileDispatch(t *testing.T) {
	dir := t.TempDir()

	nativePath := filepath.Join(dir, "capture.json")
	if err := SaveFile(nativePath, sampleCapture()); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	got, err := LoadFile(nativePath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(got.Exchanges) != 1 {
		t.Errorf("got %d exchanges, want 1", len(got.Exchanges))
	}
}
