package ml

import (
	"context"
	"os"
)

// FileLoader reads the model artifact and feature-schema descriptor from
// the paths training wrote them to.
type FileLoader struct {
	ModelPath    string
	FeaturesPath string
}

// NewFileLoader creates a loader for the two artifact paths.
func NewFileLoader(modelPath, featuresPath string) *FileLoader {
	return &FileLoader{ModelPath: modelPath, FeaturesPath: featuresPath}
}

func (l *FileLoader) Load(ctx context.Context) (Artifacts, error) {
	modelData, err := readArtifact(ctx, l.ModelPath)
	if err != nil {
		return Artifacts{}, &ModelLoadError{Artifact: "model", Location: l.ModelPath, Err: err}
	}
	schemaData, err := readArtifact(ctx, l.FeaturesPath)
	if err != nil {
		return Artifacts{}, &ModelLoadError{Artifact: "features", Location: l.FeaturesPath, Err: err}
	}
	return DecodeArtifacts(modelData, schemaData, l.ModelPath, l.FeaturesPath)
}

func readArtifact(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
