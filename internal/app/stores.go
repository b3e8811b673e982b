package app

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	artifactcache "github.com/Vansh-04/buildfirst/internal/cache/artifact"
	"github.com/Vansh-04/buildfirst/internal/config"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

// openStore builds the configured backend, optionally behind the read cache.
// The returned closer is nil when the backend holds no resources.
func openStore(cfg config.Config, log *zap.Logger) (artifactrepo.Store, io.Closer, error) {
	var (
		origin artifactrepo.Store
		closer io.Closer
	)
	switch cfg.Store.Backend {
	case "", "disk":
		origin = artifactrepo.NewDiskStore(cfg.Workspace)
		log.Info("artifact store: disk", zap.String("root", cfg.Workspace))
	case "memory":
		origin = artifactrepo.NewMemoryStore()
		log.Info("artifact store: in-memory")
	case "s3":
		a := cfg.Store.Artifact
		s3Store, err := artifactrepo.NewS3Store(artifactrepo.S3Config{
			Endpoint:  a.Endpoint,
			Region:    a.Region,
			AccessKey: a.AccessKey,
			SecretKey: a.SecretKey,
			Bucket:    a.Bucket,
			Prefix:    a.Prefix,
			UseSSL:    a.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
		}
		origin = s3Store
		log.Info("artifact store: s3", zap.String("bucket", a.Bucket), zap.String("endpoint", a.Endpoint))
	case "postgres":
		pg, err := artifactrepo.OpenPostgresStore(cfg.Store.DSN, cfg.Workspace)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open artifact postgres store: %w", err)
		}
		origin, closer = pg, pg
		log.Info("artifact store: postgres", zap.String("workspace", cfg.Workspace))
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if !cfg.Store.Cache {
		return origin, closer, nil
	}
	return artifactcache.NewCachedStore(origin, artifactcache.DefaultCacheConfig()), closer, nil
}
