package core

import (
	"fmt"
	"os"

	"tesim/internal/recorder"
	"tesim/internal/recorder/postgres"
	"tesim/internal/recorder/sqlite"
)

// RecorderDriver identifies a concrete run-recorder implementation.
type RecorderDriver = recorder.Driver

const (
	RecorderMemory   = recorder.DriverMemory
	RecorderSQLite   = recorder.DriverSQLite
	RecorderPostgres = recorder.DriverPostgres
)

// OpenRecorder selects a recorder backend using environment variables.
// Defaults to sqlite when unset.
//
//	TESIM_RECORDER_DRIVER: memory|sqlite|postgres (default sqlite)
//	TESIM_SQLITE_PATH: path to sqlite file (default ./tesim.db)
//	TESIM_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenRecorder() (recorder.Recorder, error) {
	driver := os.Getenv("TESIM_RECORDER_DRIVER")
	if driver == "" {
		driver = string(recorder.DriverSQLite)
	}
	switch recorder.Driver(driver) {
	case recorder.DriverMemory:
		return recorder.NewMemory(), nil
	case recorder.DriverSQLite:
		return sqlite.NewStore(os.Getenv("TESIM_SQLITE_PATH"))
	case recorder.DriverPostgres:
		return postgres.NewStore(os.Getenv("TESIM_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown recorder driver %s", driver)
	}
}
