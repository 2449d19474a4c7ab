// FilePath: internal/repository/timescale/timescale.telemetry.go
package timescale

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boatmonitor/hub/internal/database"
	"github.com/boatmonitor/hub/internal/errors"
	"github.com/boatmonitor/hub/internal/models"
	"github.com/boatmonitor/hub/internal/repository"
	"github.com/boatmonitor/hub/internal/warehouse"
	"github.com/lib/pq"
	nuts "github.com/vaudience/go-nuts"
)

// TelemetryRepo reads and writes the flat lora telemetry table.
type TelemetryRepo struct {
	TimeScaleBaseRepo
	table       string
	maxGateways int
	hypertable  bool
	dumper      repository.QueryDumper
}

// TelemetryRepoConfig configures TelemetryRepo.
type TelemetryRepoConfig struct {
	Table       string
	MaxGateways int
	// Hypertable converts the table with create_hypertable on init.
	Hypertable bool
	// Dumper, when set, receives every query text.
	Dumper repository.QueryDumper
}

var _ repository.TelemetryRepository = (*TelemetryRepo)(nil)

func NewTelemetryRepository(db database.DB, cfg TelemetryRepoConfig) (*TelemetryRepo, error) {
	if cfg.Table == "" {
		cfg.Table = "lora_iot"
	}
	repo := &TelemetryRepo{
		TimeScaleBaseRepo: TimeScaleBaseRepo{db: db},
		table:             cfg.Table,
		maxGateways:       cfg.MaxGateways,
		hypertable:        cfg.Hypertable,
		dumper:            cfg.Dumper,
	}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

// SchemaStatements returns the DDL for a table with maxGateways indexed
// gateway column groups.
func SchemaStatements(table string, maxGateways int, hypertable bool) []string {
	quoted := pq.QuoteIdentifier(table)
	cols := []string{
		"received_at TIMESTAMPTZ NOT NULL",
		"latitude DOUBLE PRECISION",
		"longitude DOUBLE PRECISION",
		"temperature DOUBLE PRECISION",
		"humidity DOUBLE PRECISION",
		`"batteryVoltage" DOUBLE PRECISION`,
		`"reedSwitchStatus" TEXT`,
		"satellites INTEGER",
		"count_gw INTEGER NOT NULL DEFAULT 0",
	}
	for i := 1; i <= maxGateways; i++ {
		cols = append(cols,
			fmt.Sprintf("%s DOUBLE PRECISION", warehouse.GatewayColumn("latitude", i)),
			fmt.Sprintf("%s DOUBLE PRECISION", warehouse.GatewayColumn("longitude", i)),
			fmt.Sprintf("%s DOUBLE PRECISION", warehouse.GatewayColumn("snr", i)),
			fmt.Sprintf("%s DOUBLE PRECISION", warehouse.GatewayColumn("rssi", i)),
			fmt.Sprintf("%s TEXT", warehouse.GatewayColumn("id", i)),
		)
	}

	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", quoted, strings.Join(cols, ",\n\t")),
	}
	if hypertable {
		stmts = append(stmts, fmt.Sprintf(
			"SELECT create_hypertable('%s', 'received_at', chunk_time_interval => INTERVAL '7 days', if_not_exists => TRUE)",
			strings.ReplaceAll(table, "'", "''")))
	}
	stmts = append(stmts, fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (received_at DESC)",
		pq.QuoteIdentifier("idx_"+table+"_received_at"), quoted))
	return stmts
}

func (r *TelemetryRepo) initializeSchema() error {
	for _, query := range SchemaStatements(r.table, r.maxGateways, r.hypertable) {
		if _, err := r.db.GetDB().Exec(query); err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}
	nuts.L.Infof("[TimescaleDB] Schema ready for %s (%d gateway columns)", r.table, r.maxGateways)
	return nil
}

// QueryRecent returns the newest rows first.
func (r *TelemetryRepo) QueryRecent(ctx context.Context, limit int) ([]warehouse.Row, error) {
	query := fmt.Sprintf(`SELECT * FROM %s ORDER BY received_at DESC LIMIT $1`, pq.QuoteIdentifier(r.table))
	return r.selectRows(ctx, "recent", query, limit)
}

// QueryRange returns rows received in [start, end), newest first.
func (r *TelemetryRepo) QueryRange(ctx context.Context, start, end time.Time) ([]warehouse.Row, error) {
	query := fmt.Sprintf(`SELECT * FROM %s WHERE received_at >= $1 AND received_at < $2 ORDER BY received_at DESC`,
		pq.QuoteIdentifier(r.table))
	return r.selectRows(ctx, "history", query, start.UTC(), end.UTC())
}

func (r *TelemetryRepo) selectRows(ctx context.Context, origin, query string, args ...interface{}) ([]warehouse.Row, error) {
	if r.dumper != nil {
		if err := r.dumper.DumpQuery(origin, query); err != nil {
			nuts.L.Warnf("[TimescaleDB] Failed to dump %s query: %v", origin, err)
		}
	}

	rows, err := r.db.GetDB().QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to query telemetry", err)
	}
	defer rows.Close()

	result := []warehouse.Row{}
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, errors.NewDatabaseError("failed to scan telemetry row", err)
		}
		result = append(result, warehouse.Row(row))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("failed to iterate telemetry rows", err)
	}
	return result, nil
}

// InsertRecords stores records in one transaction, flattening gateway links
// into the indexed columns. Links beyond the table's capacity are dropped.
func (r *TelemetryRepo) InsertRecords(ctx context.Context, records []models.TelemetryRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rec := range records {
		query, args := InsertStatement(r.table, r.maxGateways, rec)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.NewDatabaseError("failed to insert telemetry record", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewDatabaseError("failed to commit telemetry records", err)
	}
	return nil
}

// InsertStatement builds a parameterized INSERT for one record.
func InsertStatement(table string, maxGateways int, rec models.TelemetryRecord) (string, []interface{}) {
	cols := []string{
		warehouse.ColReceivedAt,
		warehouse.ColLatitude,
		warehouse.ColLongitude,
		warehouse.ColTemperature,
		warehouse.ColHumidity,
		pq.QuoteIdentifier(warehouse.ColBatteryVoltage),
		pq.QuoteIdentifier(warehouse.ColReedSwitchStatus),
		warehouse.ColSatellites,
		warehouse.ColGatewayCount,
	}
	links := rec.GatewayLinks
	if len(links) > maxGateways {
		nuts.L.Warnf("[TimescaleDB] Record at %s has %d gateways, storing first %d",
			rec.ReceivedAt.Format(time.RFC3339), len(links), maxGateways)
		links = links[:maxGateways]
	}
	args := []interface{}{
		rec.ReceivedAt.UTC(),
		rec.Latitude,
		rec.Longitude,
		rec.Temperature,
		rec.Humidity,
		rec.BatteryVoltage,
		rec.ReedSwitchStatus,
		rec.SatelliteCount,
		len(links),
	}
	for i, link := range links {
		n := i + 1
		cols = append(cols,
			warehouse.GatewayColumn("latitude", n),
			warehouse.GatewayColumn("longitude", n),
			warehouse.GatewayColumn("snr", n),
			warehouse.GatewayColumn("rssi", n),
			warehouse.GatewayColumn("id", n),
		)
		args = append(args, nullable(link.Latitude), nullable(link.Longitude), link.SNR, link.RSSI, link.GatewayID)
	}

	placeholders := make([]string, len(args))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(table), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return query, args
}

func nullable(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
