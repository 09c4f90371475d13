package storage

import (
	"context"
	"fmt"

	"grocery-sales/internal/ml"
)

// Loader serves the store's active version to an ml.Predictor.
type Loader struct {
	store *Store
}

func NewLoader(store *Store) *Loader {
	return &Loader{store: store}
}

func (l *Loader) Load(ctx context.Context) (ml.Artifacts, error) {
	if err := ctx.Err(); err != nil {
		return ml.Artifacts{}, err
	}

	av, err := l.store.ActiveVersion()
	if err != nil {
		return ml.Artifacts{}, &ml.ModelLoadError{Artifact: "model", Location: l.store.Path(), Err: err}
	}
	model, features, err := l.store.Artifacts(av.Version)
	if err != nil {
		return ml.Artifacts{}, &ml.ModelLoadError{Artifact: "model", Location: l.store.Path(), Err: err}
	}

	location := fmt.Sprintf("%s#%s", l.store.Path(), av.Version)
	a, err := ml.DecodeArtifacts(model, features, location, location)
	if err != nil {
		return ml.Artifacts{}, err
	}
	// the stored version name wins over the one embedded in the artifact
	a.Metadata.Version = av.Version
	return a, nil
}
