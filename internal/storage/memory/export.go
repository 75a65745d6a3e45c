// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	v1 "github.com/sailboard/dashboard/internal/storage/memory/export/v1"
)

// exportJSON writes the snapshot to a (optionally gzipped) JSON file.
func (b *Backend) exportJSON() error {
	exportedAt := b.now()
	export := v1.Build(&v1.FleetData{
		Meta:       b.meta,
		Ships:      b.shipsLocked(),
		ExportedAt: exportedAt,
	})

	mode := strings.ReplaceAll(b.meta.Mode, " ", "_")
	if mode == "" {
		mode = "fleet"
	}
	started := b.meta.StartedAt
	if started.IsZero() {
		started = exportedAt
	}
	timestamp := started.UTC().Format("20060102_150405")

	filename := fmt.Sprintf("fleet_%s_%s.json", mode, timestamp)
	if b.cfg.CompressOutput {
		filename += ".gz"
	}

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)
	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

// ExportedFilePath returns the path of the last written export.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

func writeJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(data); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

func writeGzipJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		_ = gzWriter.Close()
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return gzWriter.Close()
}
