package sync

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestGormRecorder_Record(t *testing.T) {
	db, mock := setupMockDB(t)
	rec := NewGormRecorder(db)

	finished := time.Date(2025, 1, 10, 0, 0, 3, 0, time.UTC)
	run := &SyncRun{
		RunID:      "run-1",
		StartedAt:  time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		FinishedAt: &finished,
		OK:         true,
		RunType:    RunManual,
		Flights: []SyncFlightLog{
			{SourceFlightID: "42", FlightNo: "CVA701", Result: "created"},
			{SourceFlightID: "43", FlightNo: "CVA703", Result: "skipped"},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `sync_runs`")).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `sync_flight_logs`")).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	require.NoError(t, rec.Record(context.Background(), run))
	assert.Equal(t, uint(7), run.ID)
	assert.Equal(t, uint(7), run.Flights[0].SyncRunID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRecorder_RecordError(t *testing.T) {
	db, mock := setupMockDB(t)
	rec := NewGormRecorder(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `sync_runs`")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := rec.Record(context.Background(), &SyncRun{RunType: RunAuto})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRecorder_Recent(t *testing.T) {
	db, mock := setupMockDB(t)
	rec := NewGormRecorder(db)

	rows := sqlmock.NewRows([]string{"id", "run_id", "ok", "created", "run_type"}).
		AddRow(9, "run-9", true, 3, "auto").
		AddRow(8, "run-8", false, 0, "manual")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `sync_runs` ORDER BY id DESC LIMIT")).
		WillReturnRows(rows)

	runs, err := rec.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, uint(9), runs[0].ID)
	assert.Equal(t, "run-9", runs[0].RunID)
	assert.True(t, runs[0].OK)
	assert.Equal(t, 3, runs[0].Created)
	assert.Equal(t, RunManual, runs[1].RunType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRecorder_Flights(t *testing.T) {
	db, mock := setupMockDB(t)
	rec := NewGormRecorder(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `sync_runs` WHERE id = ?")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := sqlmock.NewRows([]string{"id", "sync_run_id", "source_flight_id", "result", "cabin_names"}).
		AddRow(1, 7, "42", "created", "Cara Cole, Dana Hill").
		AddRow(2, 7, "43", "skipped", "")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `sync_flight_logs` WHERE sync_run_id = ? ORDER BY id ASC")).
		WithArgs(7).
		WillReturnRows(rows)

	logs, err := rec.Flights(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, uint(7), logs[0].SyncRunID)
	assert.Equal(t, "Cara Cole, Dana Hill", logs[0].CabinNames)
	assert.Equal(t, "skipped", logs[1].Result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRecorder_FlightsUnknownRun(t *testing.T) {
	db, mock := setupMockDB(t)
	rec := NewGormRecorder(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `sync_runs` WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := rec.Flights(context.Background(), 99)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNopRecorder(t *testing.T) {
	var rec Recorder = NopRecorder{}
	assert.NoError(t, rec.Record(context.Background(), &SyncRun{}))
	runs, err := rec.Recent(context.Background(), 10)
	assert.NoError(t, err)
	assert.Empty(t, runs)

	_, err = rec.Flights(context.Background(), 1)
	assert.ErrorIs(t, err, ErrRunNotFound)
}
