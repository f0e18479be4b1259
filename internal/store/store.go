// Package store persists blueprints, graphs, and captures per project in
// a BoltDB file. It is the host-side wiring of the pipeline's persistence
// collaborator; the analysis components themselves never touch disk.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/PentesterFlow/apimapper/internal/capture"
	apierrors "github.com/PentesterFlow/apimapper/internal/errors"
	"github.com/PentesterFlow/apimapper/pkg/model"
)

var (
	bucketBlueprints = []byte("blueprints")
	bucketGraphs     = []byte("graphs")
	bucketCaptures   = []byte("captures")
)

// ErrNotFound is returned when a project has no stored value of the
// requested kind.
var ErrNotFound = fmt.Errorf("not found")

// ProjectStore is a BoltDB-backed project store.
type ProjectStore struct {
	db   *bolt.DB
	path string
}

// Open opens (creating if needed) a project store at the given path.
func Open(path string) (*ProjectStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apierrors.NewStorage(path, "open", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, apierrors.NewStorage(path, "open", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketBlueprints, bucketGraphs, bucketCaptures} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, apierrors.NewStorage(path, "create buckets", err)
	}

	return &ProjectStore{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *ProjectStore) Close() error {
	return s.db.Close()
}

// SaveBlueprint stores a project's blueprint.
func (s *ProjectStore) SaveBlueprint(projectID string, bp *model.Blueprint) error {
	return s.put(bucketBlueprints, projectID, bp)
}

// LoadBlueprint loads a project's blueprint.
func (s *ProjectStore) LoadBlueprint(projectID string) (*model.Blueprint, error) {
	var bp model.Blueprint
	if err := s.get(bucketBlueprints, projectID, &bp); err != nil {
		return nil, err
	}
	return &bp, nil
}

// SaveGraph stores a project's navigation graph.
func (s *ProjectStore) SaveGraph(projectID string, g *model.Graph) error {
	return s.put(bucketGraphs, projectID, g)
}

// LoadGraph loads a project's navigation graph.
func (s *ProjectStore) LoadGraph(projectID string) (*model.Graph, error) {
	var g model.Graph
	if err := s.get(bucketGraphs, projectID, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// SaveCapture stores a project's capture batch.
func (s *ProjectStore) SaveCapture(projectID string, c *capture.Capture) error {
	return s.put(bucketCaptures, projectID, c)
}

// LoadCapture loads a project's capture batch.
func (s *ProjectStore) LoadCapture(projectID string) (*capture.Capture, error) {
	var c capture.Capture
	if err := s.get(bucketCaptures, projectID, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListProjects returns the sorted union of project ids across buckets.
func (s *ProjectStore) ListProjects() ([]string, error) {
	seen := make(map[string]bool)
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketBlueprints, bucketGraphs, bucketCaptures} {
			b := tx.Bucket(bucket)
			if b == nil {
				continue
			}
			if err := b.ForEach(func(k, _ []byte) error {
				seen[string(k)] = true
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apierrors.NewStorage(s.path, "list projects", err)
	}

	projects := make([]string, 0, len(seen))
	for id := range seen {
		projects = append(projects, id)
	}
	sort.Strings(projects)
	return projects, nil
}

// DeleteProject removes all stored values for a project.
func (s *ProjectStore) DeleteProject(projectID string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketBlueprints, bucketGraphs, bucketCaptures} {
			b := tx.Bucket(bucket)
			if b == nil {
				continue
			}
			if err := b.Delete([]byte(projectID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apierrors.NewStorage(s.path, "delete project", err)
	}
	return nil
}

func (s *ProjectStore) put(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apierrors.NewEncode(key, "marshal", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return apierrors.NewStorage(s.path, "put", err)
	}
	return nil
}

func (s *ProjectStore) get(bucket []byte, key string, value interface{}) error {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		if raw := b.Get([]byte(key)); raw != nil {
			data = make([]byte, len(raw))
			copy(data, raw)
		}
		return nil
	})
	if err != nil {
		return apierrors.NewStorage(s.path, "get", err)
	}
	if data == nil {
		return ErrNotFound
	}
	if err := json.Unmarshal(data, value); err != nil {
		return apierrors.NewEncode(key, "unmarshal", err)
	}
	return nil
}
