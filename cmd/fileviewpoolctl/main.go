package main

import (
	"encoding/json"
	"path/filepath"

	"github.com/diskio/fileviewpool/internal/pool"
	"github.com/diskio/fileviewpool/pkg/errors"
	"github.com/diskio/fileviewpool/pkg/filesys"
	"github.com/diskio/fileviewpool/pkg/logger"
	"github.com/diskio/fileviewpool/pkg/openmode"
	"github.com/diskio/fileviewpool/pkg/options"
)

func main() {
	log := logger.New("fileviewpoolctl")

	dataDir := "/var/lib/fileviewpool/demo"
	if err := filesys.CreateDir(dataDir, 0755, true); err != nil {
		log.Fatalw("failed to create demo data directory", "path", dataDir, "error", err)
	}

	existing, err := filesys.ReadDir(filepath.Join(dataDir, "piece-*.dat"))
	if err != nil {
		log.Fatalw("failed to list existing pieces", "path", dataDir, "error", err)
	}
	log.Infow("found existing pieces", "count", len(existing))

	p := pool.New(log, options.WithSizeLimit(2))
	defer func() {
		if err := p.Close(); err != nil {
			log.Errorw("pool close reported errors", "error", err)
		}
	}()

	view, err := p.OpenFile(0, 0, filepath.Join(dataDir, "piece-0.dat"), 1<<20, openmode.Read|openmode.Write)
	if err != nil {
		if pe, ok := errors.AsPoolError(err); ok {
			log.Fatalw("open failed", "code", pe.Code(), "path", pe.Path(), "storage", pe.StorageID(), "file", pe.FileIndex())
		}
		log.Fatalw("open failed", "error", err)
	}
	defer view.Close()

	if _, err := view.WriteAt([]byte("hello, torrent"), 0); err != nil {
		log.Fatalw("write failed", "error", err)
	}
	p.RecordFileWrite(0, 0, 1)

	status := p.GetStatus(0)
	encoded, _ := json.MarshalIndent(status, "", "  ")
	log.Infow("storage status", "entries", string(encoded))

	if err := p.FlushNextFile(); err != nil {
		log.Errorw("flush failed", "error", err)
	}
}
