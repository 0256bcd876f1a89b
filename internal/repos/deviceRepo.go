package repos

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/dusk/internal/models"
)

// ErrUnknownDevice is returned when a device id isn't in the journal
var ErrUnknownDevice = errors.New("unknown device")

const initSchema = `
  CREATE TABLE IF NOT EXISTS device (
    id VARCHAR(64) PRIMARY KEY,
    name TEXT,
    last_temperature INTEGER,
    last_commit_time TIMESTAMP,
    last_error TEXT,
    consecutive_failures INTEGER NOT NULL DEFAULT 0
  );

  DELETE FROM device;
`

// DeviceRepo is the journal of what was last sent to each output
type DeviceRepo struct {
	logger *log.Logger
	db     *sql.DB
}

func NewDeviceRepo(logger *log.Logger, db *sql.DB) (*DeviceRepo, error) {

	_, err := db.Exec(initSchema)
	if err != nil {
		return nil, fmt.Errorf("Error initialising device schema: %w", err)
	}

	return &DeviceRepo{logger: logger, db: db}, nil
}

func (r *DeviceRepo) Add(id string, name string) error {
	_, err := r.db.Exec(
		`INSERT INTO device (id, name) VALUES ($1, $2)
     ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		id, name)
	if err != nil {
		return fmt.Errorf("Error adding device (%s): %w", name, err)
	}
	return nil
}

func (r *DeviceRepo) Remove(id string) error {
	_, err := r.db.Exec("DELETE FROM device WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("Error removing device (%s): %w", id, err)
	}
	return nil
}

func (r *DeviceRepo) RecordCommit(id string, temperature int, at time.Time) error {
	_, err := r.db.Exec(
		`UPDATE device
     SET last_temperature     = $1,
         last_commit_time     = $2,
         last_error           = NULL,
         consecutive_failures = 0
     WHERE id = $3`,
		temperature, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("Error recording commit of %vK to device (%s): %w", temperature, id, err)
	}
	return nil
}

func (r *DeviceRepo) RecordFailure(id string, cause error) error {
	_, err := r.db.Exec(
		`UPDATE device
     SET last_error           = $1,
         consecutive_failures = consecutive_failures + 1
     WHERE id = $2`,
		cause.Error(), id)
	if err != nil {
		return fmt.Errorf("Error recording failure for device (%s): %w", id, err)
	}
	return nil
}

const selectDevice = `SELECT id, name, last_temperature, last_commit_time, last_error, consecutive_failures FROM device`

type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(row scanner) (models.DeviceStatus, error) {
	var (
		status      models.DeviceStatus
		name        sql.NullString
		temperature sql.NullInt64
		commitTime  sql.NullTime
		lastError   sql.NullString
	)
	err := row.Scan(&status.ID, &name, &temperature, &commitTime, &lastError, &status.ConsecutiveFailures)
	if err != nil {
		return status, err
	}
	status.Name = name.String
	status.LastTemperature = int(temperature.Int64)
	status.LastError = lastError.String
	if commitTime.Valid {
		t := commitTime.Time
		status.LastCommitTime = &t
	}
	return status, nil
}

func (r *DeviceRepo) Get(id string) (models.DeviceStatus, error) {
	row := r.db.QueryRow(selectDevice+" WHERE id = $1", id)
	status, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return status, fmt.Errorf("Error reading device (%s): %w", id, ErrUnknownDevice)
	}
	if err != nil {
		return status, fmt.Errorf("Error reading device (%s): %w", id, err)
	}
	return status, nil
}

func (r *DeviceRepo) All() ([]models.DeviceStatus, error) {
	rows, err := r.db.Query(selectDevice + " ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("Error reading devices: %w", err)
	}
	defer rows.Close()

	devices := []models.DeviceStatus{}
	for rows.Next() {
		status, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("Error reading devices: %w", err)
		}
		devices = append(devices, status)
	}
	return devices, rows.Err()
}
