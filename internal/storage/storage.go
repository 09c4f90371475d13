// Package storage keeps trained model artifacts in a local BoltDB file.
// Each imported version holds a model artifact and its feature-schema
// descriptor; exactly one version is active at a time and can be rolled
// back to the version imported before it.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"grocery-sales/internal/ml"

	"go.etcd.io/bbolt"
)

const (
	artifactsBucket = "artifacts" // "<version>/model" and "<version>/features" blobs
	versionsBucket  = "versions"  // version -> ArtifactVersion JSON
	stateBucket     = "state"     // active version pointer

	activeKey = "active"

	dbFile = "sales-artifacts.db"
)

var (
	ErrVersionNotFound   = errors.New("version not found")
	ErrVersionExists     = errors.New("version already exists")
	ErrNoActiveVersion   = errors.New("no active version")
	ErrNoPreviousVersion = errors.New("no previous version available for rollback")
)

// ArtifactVersion describes one imported model.
type ArtifactVersion struct {
	Version   string             `json:"version"`
	Seq       uint64             `json:"seq"`
	CreatedAt time.Time          `json:"created_at"`
	ModelKind string             `json:"model_kind"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	IsActive  bool               `json:"is_active"`
}

// Store provides persistent storage for model artifacts using BoltDB.
type Store struct {
	db   *bbolt.DB
	path string
}

// New opens (creating if needed) the artifact database under dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, dbFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{artifactsBucket, versionsBucket, stateBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: dbPath}, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// AddVersion stores a model artifact and feature schema under version. Both
// are decoded first so an unusable pair is never stored. An empty version
// is replaced by a timestamp. The new version is not activated.
func (s *Store) AddVersion(version string, model, features []byte, metrics map[string]float64) (ArtifactVersion, error) {
	a, err := ml.DecodeArtifacts(model, features, "import", "import")
	if err != nil {
		return ArtifactVersion{}, err
	}

	now := time.Now().UTC()
	if version == "" {
		version = now.Format("20060102-150405")
	}
	if metrics == nil {
		metrics = a.Metadata.Metrics
	}

	av := ArtifactVersion{
		Version:   version,
		CreatedAt: now,
		ModelKind: a.Metadata.Kind,
		Metrics:   metrics,
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		vb := tx.Bucket([]byte(versionsBucket))
		if vb.Get([]byte(version)) != nil {
			return fmt.Errorf("%w: %s", ErrVersionExists, version)
		}

		seq, err := vb.NextSequence()
		if err != nil {
			return err
		}
		av.Seq = seq

		data, err := json.Marshal(av)
		if err != nil {
			return fmt.Errorf("marshal version: %w", err)
		}
		if err := vb.Put([]byte(version), data); err != nil {
			return err
		}

		ab := tx.Bucket([]byte(artifactsBucket))
		if err := ab.Put(modelKey(version), model); err != nil {
			return err
		}
		return ab.Put(featuresKey(version), features)
	})
	if err != nil {
		return ArtifactVersion{}, err
	}
	return av, nil
}

// ActivateVersion makes version the one served by Loader.
func (s *Store) ActivateVersion(version string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(versionsBucket)).Get([]byte(version)) == nil {
			return fmt.Errorf("%w: %s", ErrVersionNotFound, version)
		}
		return tx.Bucket([]byte(stateBucket)).Put([]byte(activeKey), []byte(version))
	})
}

// Rollback activates the version imported immediately before the active one
// and returns it.
func (s *Store) Rollback() (ArtifactVersion, error) {
	versions, err := s.ListVersions()
	if err != nil {
		return ArtifactVersion{}, err
	}

	// newest first
	for i, v := range versions {
		if !v.IsActive {
			continue
		}
		if i+1 >= len(versions) {
			return ArtifactVersion{}, ErrNoPreviousVersion
		}
		prev := versions[i+1]
		if err := s.ActivateVersion(prev.Version); err != nil {
			return ArtifactVersion{}, err
		}
		prev.IsActive = true
		return prev, nil
	}
	return ArtifactVersion{}, ErrNoActiveVersion
}

// ActiveVersion returns the active version.
func (s *Store) ActiveVersion() (ArtifactVersion, error) {
	var av ArtifactVersion
	err := s.db.View(func(tx *bbolt.Tx) error {
		active := tx.Bucket([]byte(stateBucket)).Get([]byte(activeKey))
		if active == nil {
			return ErrNoActiveVersion
		}
		data := tx.Bucket([]byte(versionsBucket)).Get(active)
		if data == nil {
			return fmt.Errorf("%w: %s", ErrVersionNotFound, active)
		}
		if err := json.Unmarshal(data, &av); err != nil {
			return fmt.Errorf("unmarshal version: %w", err)
		}
		av.IsActive = true
		return nil
	})
	return av, err
}

// ListVersions returns all versions, newest first.
func (s *Store) ListVersions() ([]ArtifactVersion, error) {
	var versions []ArtifactVersion
	err := s.db.View(func(tx *bbolt.Tx) error {
		active := string(tx.Bucket([]byte(stateBucket)).Get([]byte(activeKey)))
		return tx.Bucket([]byte(versionsBucket)).ForEach(func(k, v []byte) error {
			var av ArtifactVersion
			if err := json.Unmarshal(v, &av); err != nil {
				return fmt.Errorf("unmarshal version %s: %w", k, err)
			}
			av.IsActive = av.Version == active
			versions = append(versions, av)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Seq > versions[j].Seq
	})
	return versions, nil
}

// Artifacts returns the raw model artifact and feature descriptor of version.
func (s *Store) Artifacts(version string) (model, features []byte, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(artifactsBucket))
		m := b.Get(modelKey(version))
		f := b.Get(featuresKey(version))
		if m == nil || f == nil {
			return fmt.Errorf("%w: %s", ErrVersionNotFound, version)
		}
		// bbolt values are only valid inside the transaction
		model = append([]byte(nil), m...)
		features = append([]byte(nil), f...)
		return nil
	})
	return model, features, err
}

func modelKey(version string) []byte    { return []byte(version + "/model") }
func featuresKey(version string) []byte { return []byte(version + "/features") }
