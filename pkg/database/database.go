// Package database stores flattened measurement rows in PostgreSQL via bun.
// It is the optional second export destination next to the CSV files.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/viper"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type DB struct {
	*bun.DB
}

// NewDB connects to the PostgreSQL instance described by the database.*
// configuration keys and verifies the connection.
func NewDB() (*DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		viper.GetString("database.user"),
		viper.GetString("database.password"),
		viper.GetString("database.host"),
		viper.GetInt("database.port"),
		viper.GetString("database.dbname"),
		viper.GetString("database.sslmode"),
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	return &DB{db}, nil
}

// InitSchema creates the measurements table if it doesn't exist.
func (db *DB) InitSchema(ctx context.Context) error {
	_, err := db.NewCreateTable().
		Model((*MeasurementRow)(nil)).
		IfNotExists().
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to create measurements table: %v", err)
	}

	return nil
}

// InsertMeasurement saves one measurement row.
func (db *DB) InsertMeasurement(ctx context.Context, row *MeasurementRow) error {
	_, err := db.NewInsert().
		Model(row).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("error inserting measurement: %v", err)
	}

	return nil
}

// RecentMeasurements returns the newest n rows, newest first.
func (db *DB) RecentMeasurements(ctx context.Context, n int) ([]MeasurementRow, error) {
	var rows []MeasurementRow
	err := db.NewSelect().
		Model(&rows).
		Order("time DESC").
		Limit(n).
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("error getting recent measurements: %v", err)
	}

	return rows, nil
}
