package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newPostgresMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return db, mock
}

func TestSlotRepository_PostgresLocksRows(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := NewGormSlotRepository(db)
	providerID := uuid.New()
	st := time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "time_slots" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "provider_id", "starts_at", "ends_at", "reserved"}).
			AddRow(uuid.NewString(), providerID.String(), st, st.Add(30*time.Minute), false))
	mock.ExpectQuery(`SELECT \* FROM "time_slots" WHERE provider_id = \$1 AND reserved = \$2 AND starts_at >= \$3 ORDER BY starts_at ASC LIMIT .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "provider_id", "starts_at", "ends_at", "reserved"}))

	if _, err := repo.GetForUpdate(context.Background(), uuid.New()); err != nil {
		t.Fatalf("GetForUpdate: %v", err)
	}
	if _, err := repo.NextRun(context.Background(), providerID, st, false, 2); err != nil {
		t.Fatalf("NextRun: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSlotRepository_SwapReservedIsConditional(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := NewGormSlotRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "time_slots" SET "reserved"=\$1,"updated_at"=\$2 WHERE id IN \(.+\) AND reserved = .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.SwapReserved(context.Background(), []uuid.UUID{uuid.New(), uuid.New()}, false, true)
	if err != nil {
		t.Fatalf("SwapReserved: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 affected row, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingRepository_PostgresLocksBooking(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := NewGormBookingRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(uuid.NewString(), "pending"))

	if _, err := repo.GetForUpdate(context.Background(), uuid.New()); err != nil {
		t.Fatalf("GetForUpdate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
