// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/boatmonitor/hub/internal/database"
	"github.com/boatmonitor/hub/internal/models"
	"github.com/boatmonitor/hub/internal/warehouse"
)

// TelemetryRepository is the warehouse seen as a tabular query interface.
// Query methods return raw rows; adapting them is the caller's job.
type TelemetryRepository interface {
	database.Repository
	QueryRecent(ctx context.Context, limit int) ([]warehouse.Row, error)
	QueryRange(ctx context.Context, start, end time.Time) ([]warehouse.Row, error)
	InsertRecords(ctx context.Context, records []models.TelemetryRecord) error
	Ping(ctx context.Context) error
}

// QueryDumper receives the text of every warehouse query when debugging.
type QueryDumper interface {
	DumpQuery(origin, query string) error
}
