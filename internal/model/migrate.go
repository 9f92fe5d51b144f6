package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей модуля записи.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Provider{},
		&Service{},
		&ProviderService{},
		&Schedule{},
		&TimeSlot{},
		&Booking{},
		&BookingSlot{},
		&Event{},
	)
}
