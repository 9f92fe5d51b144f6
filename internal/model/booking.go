package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusAttended  BookingStatus = "attended"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Terminal — из attended и cancelled переходов нет.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusAttended || s == BookingStatusCancelled
}

// Active — запись удерживает свои слоты.
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// bookings — запись на приём. SlotID указывает на якорный (самый ранний) слот цепочки,
// полный список занятых слотов лежит в booking_slots.
type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SlotID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bookings_active_slot,where:status <> 'cancelled'"`
	ServiceID uuid.UUID `gorm:"type:uuid;not null;index"`

	TutorName  string `gorm:"type:varchar(255);not null"`
	TutorPhone string `gorm:"type:varchar(32)"`
	TutorEmail string `gorm:"type:varchar(255)"`
	PetName    string `gorm:"type:varchar(255);not null"`
	Notes      string `gorm:"type:text"`

	Status      BookingStatus `gorm:"type:varchar(32);not null;index"`
	CreatedAt   time.Time     `gorm:"not null;default:now()"`
	UpdatedAt   time.Time     `gorm:"not null;default:now()"`
	CancelledAt *time.Time    `gorm:"type:timestamp with time zone"`

	Slot    *TimeSlot     `gorm:"foreignKey:SlotID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Service *Service      `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Slots   []BookingSlot `gorm:"foreignKey:BookingID"`
}

// booking_slots — цепочка слотов, которую занимает запись.
// Position 0 — якорь. Пока ReleasedAt = nil, слот не может входить в другую цепочку.
type BookingSlot struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	SlotID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_booking_slots_active_slot,where:released_at IS NULL"`
	Position   int        `gorm:"not null"`
	CreatedAt  time.Time  `gorm:"not null;default:now()"`
	ReleasedAt *time.Time `gorm:"type:timestamp with time zone"`

	Booking *Booking  `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Slot    *TimeSlot `gorm:"foreignKey:SlotID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
