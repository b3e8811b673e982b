// Package inspect builds the Data Profile for the supplied dataset.
package inspect

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/dataset"
	"github.com/Vansh-04/buildfirst/internal/healer"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

// Profile inspects path. An empty or missing path yields the no-data profile.
func Profile(path string) (artifact.DataProfile, error) {
	if strings.TrimSpace(path) == "" {
		return artifact.NoData(), nil
	}
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return artifact.NoData(), nil
	}
	sizeMB := math.Round(float64(st.Size())/(1024*1024)*100) / 100

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		tbl, digest, err := dataset.LoadFile(path)
		if err != nil {
			return artifact.DataProfile{}, healer.Fail(healer.DatasetIncompatible, "dataset incompatible: %v", err)
		}
		target, ok := dataset.DetectTarget(tbl)
		return artifact.DataProfile{
			DataPresent:    true,
			Modality:       artifact.ModalityTabular,
			Path:           path,
			Rows:           len(tbl.Rows),
			Columns:        len(tbl.Columns),
			ColumnNames:    tbl.Columns,
			TargetDetected: ok,
			TargetColumn:   target,
			SizeMB:         sizeMB,
			Digest:         digest,
		}, nil
	case ".jpg", ".jpeg", ".png":
		return simple(artifact.ModalityImage, path, sizeMB)
	case ".txt":
		return simple(artifact.ModalityText, path, sizeMB)
	default:
		return artifact.DataProfile{}, healer.Fail(healer.DatasetIncompatible, "unsupported file type: %s", ext)
	}
}

func simple(m artifact.Modality, path string, sizeMB float64) (artifact.DataProfile, error) {
	digest, err := dataset.FileDigest(path)
	if err != nil {
		return artifact.DataProfile{}, err
	}
	return artifact.DataProfile{
		DataPresent: true,
		Modality:    m,
		Path:        path,
		SizeMB:      sizeMB,
		Digest:      digest,
	}, nil
}

type Stage struct {
	Store  artifactrepo.Store
	Logger *zap.Logger
}

// Run writes the Data Profile unless an identical one is already stored.
// It reports whether it wrote.
func (s Stage) Run(ctx context.Context, datasetPath string) (artifact.DataProfile, bool, error) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	profile, err := Profile(datasetPath)
	if err != nil {
		return profile, false, err
	}
	prev, err := artifactrepo.Read[artifact.DataProfile](ctx, s.Store, artifact.KindDataProfile, artifact.DataProfileFile)
	if err == nil && sameProfile(prev, profile) {
		log.Info("INSPECT: using cache", zap.String("path", artifact.DataProfileFile))
		return prev, false, nil
	}
	if err := artifactrepo.Write(ctx, s.Store, artifact.DataProfileFile, profile); err != nil {
		return profile, false, err
	}
	log.Info("INSPECT → "+artifact.DataProfileFile,
		zap.Bool("data_present", profile.DataPresent),
		zap.String("modality", string(profile.Modality)),
		zap.Int("rows", profile.Rows))
	return profile, true, nil
}

func sameProfile(a, b artifact.DataProfile) bool {
	return a.DataPresent == b.DataPresent && a.Path == b.Path && a.Digest == b.Digest && a.Reason == b.Reason
}
