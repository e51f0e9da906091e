package database

import (
	"log"

	"onay-backend/internal/config"
	"onay-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.PendingTransaction{},
		&models.ApprovalHistory{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	// Bildirim sorgusu için status + user_id birlikte sorgulanıyor
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_pending_transactions_user_status ON pending_transactions(user_id, status)")

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}
