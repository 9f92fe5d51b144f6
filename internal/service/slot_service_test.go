package service

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/vetclinic-booking/internal/dbtest"
	"github.com/Leganyst/vetclinic-booking/internal/model"
	"github.com/Leganyst/vetclinic-booking/internal/repository"
)

func newSlotService(db *gorm.DB) *SlotService {
	return NewSlotService(
		repository.NewGormSlotRepository(db),
		repository.NewGormScheduleRepository(db),
		repository.NewGormProviderRepository(db),
		30,
		31*24*time.Hour,
		zap.NewNop(),
	)
}

func seedSchedule(t *testing.T, db *gorm.DB, providerID uuid.UUID, tz, rules string) *model.Schedule {
	t.Helper()
	s := &model.Schedule{
		ProviderID: providerID,
		TimeZone:   tz,
		Rules:      datatypes.JSON(rules),
	}
	if err := db.Omit("Provider").Create(s).Error; err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
	return s
}

func TestGenerate_WeekdayMornings(t *testing.T) {
	db := dbtest.Open(t)
	svc := newSlotService(db)
	p := dbtest.SeedProvider(t, db, "Dra. Pérez")
	seedSchedule(t, db, p.ID, "UTC", `[{"weekdays":[1,2,3,4,5],"start":"09:00","end":"11:00"}]`)

	monday := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)
	n, err := svc.Generate(context.Background(), p.ID, monday, monday.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// 5 дней по 4 слота.
	if n != 20 {
		t.Fatalf("expected 20 slots, got %d", n)
	}

	slots, err := svc.List(context.Background(), SlotQuery{ProviderID: &p.ID, Limit: 100})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(slots) != 20 {
		t.Fatalf("expected 20 listed slots, got %d", len(slots))
	}
	first := slots[0]
	if !first.StartsAt.Equal(time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected first slot %s", first.StartsAt)
	}
	if first.EndsAt.Sub(first.StartsAt) != 30*time.Minute {
		t.Fatalf("slot must be one grid cell, got %s", first.EndsAt.Sub(first.StartsAt))
	}
	if first.ScheduleID == nil {
		t.Fatalf("slot must reference its schedule")
	}
	for _, s := range slots {
		if wd := s.StartsAt.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Fatalf("weekend slot generated: %s", s.StartsAt)
		}
	}

	// Повторная генерация ничего не дублирует.
	again, err := svc.Generate(context.Background(), p.ID, monday, monday.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected no new slots, got %d", again)
	}
}

func TestGenerate_ClinicTimeZone(t *testing.T) {
	db := dbtest.Open(t)
	svc := newSlotService(db)
	p := dbtest.SeedProvider(t, db, "Dr. Ruiz")
	seedSchedule(t, db, p.ID, "Europe/Madrid", `[{"weekdays":[1],"start":"10:00","end":"10:30"}]`)

	monday := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)
	n, err := svc.Generate(context.Background(), p.ID, monday, monday.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 slot, got %d", n)
	}

	slots, err := svc.List(context.Background(), SlotQuery{ProviderID: &p.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	// Зимой Мадрид UTC+1.
	if !slots[0].StartsAt.Equal(time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %s", slots[0].StartsAt)
	}
}

func TestGenerate_ClosedDates(t *testing.T) {
	db := dbtest.Open(t)
	svc := newSlotService(db)
	p := dbtest.SeedProvider(t, db, "Dra. Pérez")
	seedSchedule(t, db, p.ID, "Europe/Madrid",
		`[{"weekdays":[1,2,3],"start":"09:00","end":"10:00","closed":["2030-01-08"]}]`)

	monday := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)
	n, err := svc.Generate(context.Background(), p.ID, monday, monday.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// Понедельник и среда по 2 слота, вторник закрыт.
	if n != 4 {
		t.Fatalf("expected 4 slots, got %d", n)
	}

	seedSchedule(t, db, p.ID, "UTC", `[{"weekdays":[4],"start":"09:00","end":"10:00","closed":["08/01/2030"]}]`)
	if _, err := svc.Generate(context.Background(), p.ID, monday, monday.AddDate(0, 0, 7)); err == nil {
		t.Fatalf("expected error for malformed closed date")
	}
}

func TestGenerate_UnknownProvider(t *testing.T) {
	db := dbtest.Open(t)
	svc := newSlotService(db)

	_, err := svc.Generate(context.Background(), uuid.New(), base, base.Add(time.Hour))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSlotList_Filters(t *testing.T) {
	db := dbtest.Open(t)
	svc := newSlotService(db)
	p := dbtest.SeedProvider(t, db, "Dra. Pérez")
	slots := dbtest.SeedSlots(t, db, p.ID, base, 30*time.Minute, 4)
	dbtest.SetReserved(t, db, slots[1].ID, true)
	ctx := context.Background()

	from, to := base, base.Add(2*time.Hour)
	free, err := svc.List(ctx, SlotQuery{From: &from, To: &to, OnlyAvailable: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(free) != 3 {
		t.Fatalf("expected 3 free slots, got %d", len(free))
	}

	limited, err := svc.List(ctx, SlotQuery{From: &from, To: &to, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != slots[0].ID {
		t.Fatalf("unexpected limited listing: %d", len(limited))
	}

	one, err := svc.List(ctx, SlotQuery{SlotID: &slots[2].ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(one) != 1 || one[0].ID != slots[2].ID {
		t.Fatalf("expected only slot %s", slots[2].ID)
	}

	if _, err := svc.List(ctx, SlotQuery{From: &from, To: &from}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid request for empty range, got %v", err)
	}
}
