package ports

import (
	"context"

	"gofit/domain/stats"
)

// ObservationReader loads (x, y, σy) tables from files
type ObservationReader interface {
	ReadObservations(ctx context.Context, path string) (stats.ObservationSet, error)
}

// ScanExporter writes a scan report to a file
type ScanExporter interface {
	ExportScan(ctx context.Context, path string, reports []*stats.ScanReport) error
}
