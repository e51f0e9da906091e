package models

import "time"

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`

	// DIA web servis bağlantı bilgileri (api key ve şifre şifreli saklanır)
	DiaSunucuAdi  string `gorm:"size:50"`
	DiaApiKey     string `gorm:"size:500"`
	DiaWsUser     string `gorm:"size:100"`
	DiaWsPassword string `gorm:"size:500"`
	DiaFirmaKodu  int
	DiaDonemKodu  int

	// DIA oturumu (yenilenebilir, tek kullanıcıya ait)
	DiaSessionID     string `gorm:"size:100"`
	DiaSessionExpiry *time.Time

	// Kullanıcıya tanımlı üst işlem türü anahtarları
	OnayKey     string `gorm:"size:20"` // onay
	RedKey      string `gorm:"size:20"` // red
	IncelemeKey string `gorm:"size:20"` // incelemeye alındı

	// Bildirim tercihleri
	NotificationsEnabled bool   `gorm:"default:false"`
	NotificationHours    string `gorm:"type:jsonb"` // [8, 12, 17] gibi saat listesi
	NotificationEmails   string `gorm:"type:jsonb"` // kategori -> alıcı email listesi
	LastNotificationSent *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
