package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dsnet/compress/bzip2"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/util"
	"go.uber.org/zap"
)

const fileExt = ".map.bz2"

// FileStore writes one bzip2 compressed file per artifact. a write goes to a temp file that is
// renamed into place, so Get never sees a partial artifact.
type FileStore struct {
	log *zap.Logger
	dir string
}

type fileHeader struct {
	ID          string `json:"id"`
	ContentType string `json:"content_type"`
	CreatedAt   int64  `json:"created_at"`
}

func NewFileStore(dir string, log *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, util.WrapErrorf(da.ErrConfiguration, util.ErrInternalServerError,
			"create artifact dir %s: %v", dir, err)
	}
	return &FileStore{log: log, dir: dir}, nil
}

func (f *FileStore) path(id string) string {
	return filepath.Join(f.dir, id+fileExt)
}

func (f *FileStore) Save(ctx context.Context, artifact da.RouteArtifact) error {
	if err := invalidArtifact(artifact); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, artifact.ID+"-*.tmp")
	if err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "create temp artifact: %v", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeArtifact(tmp, artifact); err != nil {
		tmp.Close()
		return util.WrapErrorf(err, util.ErrInternalServerError, "write artifact %s: %v", artifact.ID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return util.WrapErrorf(err, util.ErrInternalServerError, "sync artifact %s: %v", artifact.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "close artifact %s: %v", artifact.ID, err)
	}

	if err := os.Rename(tmpName, f.path(artifact.ID)); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "publish artifact %s: %v", artifact.ID, err)
	}

	f.log.Debug("artifact written", zap.String("artifact_id", artifact.ID), zap.String("path", f.path(artifact.ID)))
	return nil
}

// file layout: one json header line, then the raw document, all bzip2 compressed.
func writeArtifact(w io.Writer, artifact da.RouteArtifact) error {
	bw, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	if err != nil {
		return err
	}

	header, err := json.Marshal(fileHeader{
		ID:          artifact.ID,
		ContentType: artifact.ContentType,
		CreatedAt:   artifact.CreatedAt.UnixNano(),
	})
	if err != nil {
		return err
	}
	if _, err := bw.Write(append(header, '\n')); err != nil {
		return err
	}
	if _, err := bw.Write(artifact.Document); err != nil {
		return err
	}
	return bw.Close()
}

func (f *FileStore) Get(ctx context.Context, id string) (da.RouteArtifact, error) {
	if !ValidID(id) {
		return da.RouteArtifact{}, notFound(id)
	}

	file, err := os.Open(f.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return da.RouteArtifact{}, notFound(id)
		}
		return da.RouteArtifact{}, util.WrapErrorf(err, util.ErrInternalServerError, "open artifact %s: %v", id, err)
	}
	defer file.Close()

	br, err := bzip2.NewReader(file, nil)
	if err != nil {
		return da.RouteArtifact{}, util.WrapErrorf(err, util.ErrInternalServerError, "read artifact %s: %v", id, err)
	}
	defer br.Close()

	data, err := io.ReadAll(br)
	if err != nil {
		return da.RouteArtifact{}, util.WrapErrorf(err, util.ErrInternalServerError, "decompress artifact %s: %v", id, err)
	}
	return decodeArtifact(data)
}

func decodeArtifact(data []byte) (da.RouteArtifact, error) {
	nl := bytes.IndexByte(data, '\n')
	if nl < 0 {
		return da.RouteArtifact{}, util.WrapErrorf(da.ErrEmptyRoute, util.ErrInternalServerError, "artifact file has no header")
	}
	var header fileHeader
	if err := json.Unmarshal(data[:nl], &header); err != nil {
		return da.RouteArtifact{}, util.WrapErrorf(err, util.ErrInternalServerError, "artifact header: %v", err)
	}
	return da.RouteArtifact{
		ID:          header.ID,
		Document:    data[nl+1:],
		ContentType: header.ContentType,
		CreatedAt:   time.Unix(0, header.CreatedAt).UTC(),
	}, nil
}
