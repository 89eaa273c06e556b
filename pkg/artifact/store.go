package artifact

import (
	"context"
	"regexp"

	"github.com/lintang-b-s/minimap/pkg/config"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/util"
	"go.uber.org/zap"
)

// Store keeps rendered route maps by id. Save returns only once the artifact can be served by Get.
type Store interface {
	Save(ctx context.Context, artifact da.RouteArtifact) error
	Get(ctx context.Context, id string) (da.RouteArtifact, error)
}

var idPattern = regexp.MustCompile(`^[0-9a-z-]{1,96}$`)

// ValidID rejects ids that could escape the store namespace, e.g. path traversal in the file store.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

func New(ctx context.Context, cfg config.Artifact, log *zap.Logger) (Store, error) {
	switch cfg.Store {
	case config.STORE_MEMORY:
		return NewMemoryStore(cfg.TTL, cfg.MaxEntries), nil
	case config.STORE_FILE:
		return NewFileStore(cfg.Dir, log)
	case config.STORE_REDIS:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.TTL, log)
	default:
		return nil, util.WrapErrorf(da.ErrConfiguration, util.ErrInternalServerError,
			"unknown artifact store %q", cfg.Store)
	}
}

func notFound(id string) error {
	return util.WrapErrorf(da.ErrArtifactNotFound, util.ErrNotFound, "map %q not found", id)
}

func invalidArtifact(artifact da.RouteArtifact) error {
	if !ValidID(artifact.ID) {
		return util.WrapErrorf(da.ErrInvalidInput, util.ErrInternalServerError, "invalid artifact id %q", artifact.ID)
	}
	if len(artifact.Document) == 0 {
		return util.WrapErrorf(da.ErrEmptyRoute, util.ErrInternalServerError, "artifact %q has no document", artifact.ID)
	}
	return nil
}
