package model

import (
	"time"

	"github.com/google/uuid"
)

// services — каталог услуг клиники (консультация, вакцинация, хирургия...).
type Service struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	// Требуемая длительность в минутах, всегда > 0.
	DurationMin int64 `gorm:"type:bigint;not null"`

	IsActive bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Providers []Provider `gorm:"many2many:provider_services;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// RequiredSlots — сколько слотов сетки занимает услуга: ceil(duration / grid).
func (s *Service) RequiredSlots(gridMinutes int64) int {
	if gridMinutes <= 0 || s.DurationMin <= 0 {
		return 1
	}
	return int((s.DurationMin + gridMinutes - 1) / gridMinutes)
}

// provider_services — кастомная join-таблица многие-ко-многим.
type ProviderService struct {
	ProviderID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ServiceID  uuid.UUID `gorm:"type:uuid;primaryKey"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Service  *Service  `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
