package repository

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/smartclinic/clinic-api/internal/domain/appointment"
)

// newDryRunDB opens a gorm session that builds SQL without touching a
// database. Pinging is disabled and DryRun short-circuits execution, so
// no Postgres server is needed.
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=clinic dbname=clinic sslmode=disable",
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening dry-run session: %v", err)
	}
	return db
}

func buildConflictSQL(t *testing.T, excludeID *uuid.UUID) (string, []any) {
	t.Helper()

	db := newDryRunDB(t)
	doctorID := uuid.New()
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	var conflicts []appointment.Appointment
	tx := conflictQuery(db, doctorID, start, end, excludeID).
		Limit(1).
		Find(&conflicts)
	if tx.Error != nil {
		t.Fatalf("building conflict query: %v", tx.Error)
	}
	return tx.Statement.SQL.String(), tx.Statement.Vars
}

// The locked overlap lookup must select rows. Postgres rejects FOR
// UPDATE combined with aggregate functions, so a count under the lock
// would fail on first execution and surface every booking as a storage
// fault.
func TestConflictQueryLocksRowsWithoutAggregation(t *testing.T) {
	sql, _ := buildConflictSQL(t, nil)

	if !strings.Contains(sql, "FOR UPDATE") {
		t.Fatalf("conflict query missing row lock:\n%s", sql)
	}
	if strings.Contains(strings.ToLower(sql), "count(") {
		t.Fatalf("conflict query aggregates under FOR UPDATE:\n%s", sql)
	}
	if !strings.Contains(sql, `"clinical"."appointments"`) {
		t.Fatalf("conflict query targets wrong table:\n%s", sql)
	}
}

func TestConflictQueryHalfOpenBounds(t *testing.T) {
	sql, vars := buildConflictSQL(t, nil)

	if !strings.Contains(sql, "scheduled_at < ") {
		t.Fatalf("missing strict upper bound:\n%s", sql)
	}
	if !strings.Contains(sql, "scheduled_at + interval '1 hour' > ") {
		t.Fatalf("missing strict lower bound:\n%s", sql)
	}

	// Condition args are (doctor, end, start): an appointment ending
	// exactly at the candidate start must not match.
	if len(vars) < 3 {
		t.Fatalf("vars = %v, want doctor/end/start", vars)
	}
	endArg, ok := vars[1].(time.Time)
	if !ok {
		t.Fatalf("vars[1] = %T, want time.Time", vars[1])
	}
	startArg, ok := vars[2].(time.Time)
	if !ok {
		t.Fatalf("vars[2] = %T, want time.Time", vars[2])
	}
	if !endArg.After(startArg) {
		t.Fatalf("bound args reversed: end %v, start %v", endArg, startArg)
	}
}

func TestConflictQueryExcludesRescheduledRow(t *testing.T) {
	id := uuid.New()
	sql, vars := buildConflictSQL(t, &id)

	if !strings.Contains(sql, "id <> ") {
		t.Fatalf("reschedule lookup does not exclude own row:\n%s", sql)
	}
	found := false
	for _, v := range vars {
		if u, ok := v.(uuid.UUID); ok && u == id {
			found = true
		}
	}
	if !found {
		t.Fatalf("excluded id %s not bound in %v", id, vars)
	}
}

func TestTranslateConflict(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil passes through", nil, nil},
		{"sentinel preserved", appointment.ErrSlotUnavailable, appointment.ErrSlotUnavailable},
		{
			"exclusion constraint mapped",
			errors.New(`ERROR: conflicting key value violates exclusion constraint "appointments_no_double_booking" (SQLSTATE 23P01)`),
			appointment.ErrSlotUnavailable,
		},
		{"unrelated error untouched", gorm.ErrInvalidTransaction, gorm.ErrInvalidTransaction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateConflict(tt.in)
			if !errors.Is(got, tt.want) && got != tt.want {
				t.Fatalf("translateConflict(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
