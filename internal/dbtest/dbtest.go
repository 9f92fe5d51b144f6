// Package dbtest поднимает sqlite в памяти со схемой, совместимой с моделями.
// AutoMigrate на sqlite не работает из-за gen_random_uuid()/now() в дефолтах,
// поэтому схема описана руками.
package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/vetclinic-booking/internal/model"
)

var schema = []string{
	`CREATE TABLE providers (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		description TEXT,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE services (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		duration_min INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE schedules (
		id TEXT PRIMARY KEY,
		provider_id TEXT NOT NULL,
		start_date DATE,
		end_date DATE,
		time_zone TEXT NOT NULL DEFAULT 'UTC',
		rules TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE time_slots (
		id TEXT PRIMARY KEY,
		schedule_id TEXT,
		provider_id TEXT NOT NULL,
		starts_at DATETIME NOT NULL,
		ends_at DATETIME NOT NULL,
		reserved BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE INDEX idx_time_slots_provider_start ON time_slots(provider_id, starts_at);`,
	`CREATE TABLE bookings (
		id TEXT PRIMARY KEY,
		slot_id TEXT NOT NULL,
		service_id TEXT NOT NULL,
		tutor_name TEXT NOT NULL,
		tutor_phone TEXT,
		tutor_email TEXT,
		pet_name TEXT NOT NULL,
		notes TEXT,
		status TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		cancelled_at DATETIME
	);`,
	`CREATE UNIQUE INDEX idx_bookings_active_slot ON bookings(slot_id) WHERE status <> 'cancelled';`,
	`CREATE TABLE booking_slots (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL,
		slot_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		created_at DATETIME,
		released_at DATETIME
	);`,
	`CREATE UNIQUE INDEX idx_booking_slots_active_slot ON booking_slots(slot_id) WHERE released_at IS NULL;`,
	`CREATE TABLE events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		created_at DATETIME,
		booking_id TEXT,
		details TEXT
	);`,
}

// Open возвращает чистую базу на один тест. Соединение одно: in-memory база
// живёт в рамках соединения, а транзакции из горутин выстраиваются в очередь.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

// SeedProvider создаёт ветеринара.
func SeedProvider(t testing.TB, db *gorm.DB, name string) *model.Provider {
	t.Helper()
	p := &model.Provider{DisplayName: name, IsActive: true}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed provider: %v", err)
	}
	return p
}

// SeedService создаёт услугу заданной длительности.
func SeedService(t testing.TB, db *gorm.DB, name string, durationMin int64) *model.Service {
	t.Helper()
	s := &model.Service{Name: name, DurationMin: durationMin, IsActive: true}
	if err := db.Omit("Providers").Create(s).Error; err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return s
}

// SeedSlots создаёт count подряд идущих слотов по step начиная со start.
func SeedSlots(t testing.TB, db *gorm.DB, providerID uuid.UUID, start time.Time, step time.Duration, count int) []model.TimeSlot {
	t.Helper()
	slots := make([]model.TimeSlot, 0, count)
	for i := 0; i < count; i++ {
		st := start.Add(time.Duration(i) * step).UTC()
		slots = append(slots, model.TimeSlot{
			ProviderID: providerID,
			StartsAt:   st,
			EndsAt:     st.Add(step),
		})
	}
	if err := db.Omit("Schedule", "Provider").Create(&slots).Error; err != nil {
		t.Fatalf("seed slots: %v", err)
	}
	return slots
}

// SetReserved выставляет флаг слоту в обход движка записи.
func SetReserved(t testing.TB, db *gorm.DB, slotID uuid.UUID, reserved bool) {
	t.Helper()
	err := db.Model(&model.TimeSlot{}).Where("id = ?", slotID).Update("reserved", reserved).Error
	if err != nil {
		t.Fatalf("set reserved: %v", err)
	}
}

// Slot перечитывает слот из базы.
func Slot(t testing.TB, db *gorm.DB, id uuid.UUID) model.TimeSlot {
	t.Helper()
	var s model.TimeSlot
	if err := db.First(&s, "id = ?", id).Error; err != nil {
		t.Fatalf("load slot %s: %v", id, err)
	}
	return s
}
