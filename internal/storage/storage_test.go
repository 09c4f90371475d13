package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"grocery-sales/internal/ml"
	"grocery-sales/internal/record"
)

const (
	modelV1 = `{"kind": "linear", "version": "a", "intercept": 100, "metrics": {"r2": 0.55},
		"categorical": {"Item Type": {"Dairy": 10}}}`
	modelV2 = `{"kind": "linear", "version": "b", "intercept": 200,
		"categorical": {"Item Type": {"Dairy": 10}}}`
	testFeatures = `{"categorical_features": ["Item Type"], "numerical_features": []}`
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	store, err := New(tempDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store database is nil")
	}

	dbPath := filepath.Join(tempDir, "sales-artifacts.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
	if store.Path() != dbPath {
		t.Errorf("Expected path %s, got %s", dbPath, store.Path())
	}
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "dir"))
	if err == nil {
		t.Error("Expected error for invalid path, got nil")
	}
}

func TestStore_Close(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Error closing store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Error closing already closed store: %v", err)
	}
}

func TestStore_AddVersion(t *testing.T) {
	store := newTestStore(t)

	av, err := store.AddVersion("v1", []byte(modelV1), []byte(testFeatures), nil)
	if err != nil {
		t.Fatalf("AddVersion failed: %v", err)
	}
	if av.Version != "v1" || av.ModelKind != ml.KindLinear {
		t.Errorf("Unexpected version: %+v", av)
	}
	if av.Metrics["r2"] != 0.55 {
		t.Errorf("Expected metrics from artifact, got %v", av.Metrics)
	}
	if av.IsActive {
		t.Error("New versions must not be activated")
	}

	if _, err := store.AddVersion("v1", []byte(modelV2), []byte(testFeatures), nil); !errors.Is(err, ErrVersionExists) {
		t.Errorf("Expected ErrVersionExists, got %v", err)
	}

	model, features, err := store.Artifacts("v1")
	if err != nil {
		t.Fatalf("Artifacts failed: %v", err)
	}
	if string(model) != modelV1 || string(features) != testFeatures {
		t.Error("Stored artifacts do not match input")
	}
}

func TestStore_AddVersionRejectsBadArtifacts(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddVersion("bad", []byte(`{"kind": "pickle"}`), []byte(testFeatures), nil)
	var le *ml.ModelLoadError
	if !errors.As(err, &le) {
		t.Fatalf("Expected *ml.ModelLoadError, got %v", err)
	}

	_, err = store.AddVersion("bad", []byte(modelV1), []byte(`{}`), nil)
	if !errors.Is(err, ml.ErrInvalidSchema) {
		t.Errorf("Expected ErrInvalidSchema, got %v", err)
	}

	versions, err := store.ListVersions()
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 0 {
		t.Errorf("Expected nothing stored, got %d versions", len(versions))
	}
}

func TestStore_GeneratedVersionName(t *testing.T) {
	store := newTestStore(t)

	av, err := store.AddVersion("", []byte(modelV1), []byte(testFeatures), map[string]float64{"rmse": 1100})
	if err != nil {
		t.Fatal(err)
	}
	if len(av.Version) != len("20060102-150405") {
		t.Errorf("Expected timestamp version, got %q", av.Version)
	}
	if av.Metrics["rmse"] != 1100 {
		t.Errorf("Expected explicit metrics to win, got %v", av.Metrics)
	}
}

func TestStore_ActivateAndRollback(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.ActiveVersion(); !errors.Is(err, ErrNoActiveVersion) {
		t.Errorf("Expected ErrNoActiveVersion, got %v", err)
	}
	if _, err := store.Rollback(); !errors.Is(err, ErrNoActiveVersion) {
		t.Errorf("Expected ErrNoActiveVersion on rollback, got %v", err)
	}

	for _, v := range []struct{ name, model string }{{"v1", modelV1}, {"v2", modelV2}, {"v3", modelV2}} {
		if _, err := store.AddVersion(v.name, []byte(v.model), []byte(testFeatures), nil); err != nil {
			t.Fatalf("AddVersion %s: %v", v.name, err)
		}
	}

	if err := store.ActivateVersion("nope"); !errors.Is(err, ErrVersionNotFound) {
		t.Errorf("Expected ErrVersionNotFound, got %v", err)
	}
	if err := store.ActivateVersion("v3"); err != nil {
		t.Fatal(err)
	}

	versions, err := store.ListVersions()
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 3 || versions[0].Version != "v3" || versions[2].Version != "v1" {
		t.Fatalf("Expected newest first, got %+v", versions)
	}
	if !versions[0].IsActive || versions[1].IsActive {
		t.Error("Expected only v3 active")
	}

	prev, err := store.Rollback()
	if err != nil || prev.Version != "v2" {
		t.Fatalf("Expected rollback to v2, got %v (%v)", prev.Version, err)
	}
	prev, err = store.Rollback()
	if err != nil || prev.Version != "v1" {
		t.Fatalf("Expected rollback to v1, got %v (%v)", prev.Version, err)
	}
	if _, err := store.Rollback(); !errors.Is(err, ErrNoPreviousVersion) {
		t.Errorf("Expected ErrNoPreviousVersion, got %v", err)
	}

	active, err := store.ActiveVersion()
	if err != nil || active.Version != "v1" || !active.IsActive {
		t.Errorf("Expected v1 active, got %+v (%v)", active, err)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddVersion("v1", []byte(modelV1), []byte(testFeatures), nil); err != nil {
		t.Fatal(err)
	}
	if err := store.ActivateVersion("v1"); err != nil {
		t.Fatal(err)
	}
	store.Close()

	store, err = New(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	active, err := store.ActiveVersion()
	if err != nil || active.Version != "v1" {
		t.Errorf("Expected v1 active after reopen, got %+v (%v)", active, err)
	}
}

func TestLoader(t *testing.T) {
	store := newTestStore(t)
	loader := NewLoader(store)

	_, err := loader.Load(context.Background())
	var le *ml.ModelLoadError
	if !errors.As(err, &le) || !errors.Is(err, ErrNoActiveVersion) {
		t.Fatalf("Expected load error wrapping ErrNoActiveVersion, got %v", err)
	}

	if _, err := store.AddVersion("v1", []byte(modelV1), []byte(testFeatures), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddVersion("v2", []byte(modelV2), []byte(testFeatures), nil); err != nil {
		t.Fatal(err)
	}
	if err := store.ActivateVersion("v2"); err != nil {
		t.Fatal(err)
	}

	a, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if a.Metadata.Version != "v2" {
		t.Errorf("Expected stored version name, got %q", a.Metadata.Version)
	}

	p := ml.New(loader)
	value, confidence, err := p.Predict(context.Background(), record.Record{"Item Type": "Dairy"})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if value != 210 || confidence != ml.DefaultConfidence {
		t.Errorf("Expected 210 at default confidence, got %v / %v", value, confidence)
	}
}
