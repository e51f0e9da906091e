package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"onay-backend/internal/config"
	"onay-backend/internal/database"
	"onay-backend/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var typeLabels = map[models.TransactionType]string{
	models.TypeInvoice:        "Fatura",
	models.TypeCurrentAccount: "Cari Hesap",
	models.TypeBank:           "Banka",
	models.TypeCash:           "Kasa",
	models.TypeCheckNote:      "Çek/Senet",
	models.TypeOrder:          "Sipariş",
}

// StartScheduler: her saat başı bildirim turunu çalıştırır
func StartScheduler(mailer Mailer) *cron.Cron {
	c := cron.New()
	c.AddFunc("0 * * * *", func() {
		RunPass(mailer, time.Now())
	})
	c.Start()
	return c
}

// RunPass: bildirim tercihi açık her kullanıcı için bekleyen işlem sayılarını
// mailer'a iletir. Gönderim hataları loglanır, yeniden denenmez; kullanıcı
// işlendikten sonra last_notification_sent her durumda damgalanır ki aynı saat
// içinde ikinci tur mail atılmasın.
func RunPass(mailer Mailer, now time.Time) {
	log := config.GetLogger()

	var users []models.User
	if err := database.DB.Where("notifications_enabled = ?", true).Find(&users).Error; err != nil {
		log.Errorf("Bildirim kullanıcıları yüklenemedi: %v", err)
		return
	}

	for i := range users {
		user := &users[i]
		if !shouldNotify(user, now) {
			continue
		}

		if err := notifyUser(mailer, user, now); err != nil {
			log.WithFields(logrus.Fields{"user_id": user.ID}).
				Errorf("Bildirim gönderimi hatalı: %v", err)
		}

		if err := database.DB.Model(&models.User{}).Where("id = ?", user.ID).
			Update("last_notification_sent", now).Error; err != nil {
			log.WithFields(logrus.Fields{"user_id": user.ID}).
				Errorf("Bildirim damgası yazılamadı: %v", err)
		}
	}
}

// shouldNotify: saat konfigüre edilmiş mi ve son bir saat içinde gönderim
// yapılmış mı kontrolü
func shouldNotify(user *models.User, now time.Time) bool {
	if user.NotificationHours == "" {
		return false
	}

	var hours []int
	if err := json.Unmarshal([]byte(user.NotificationHours), &hours); err != nil {
		return false
	}

	hourConfigured := false
	for _, h := range hours {
		if h == now.Hour() {
			hourConfigured = true
			break
		}
	}
	if !hourConfigured {
		return false
	}

	if user.LastNotificationSent != nil && now.Sub(*user.LastNotificationSent) < time.Hour {
		return false
	}

	return true
}

func notifyUser(mailer Mailer, user *models.User, now time.Time) error {
	recipients := map[string][]string{}
	if user.NotificationEmails != "" {
		if err := json.Unmarshal([]byte(user.NotificationEmails), &recipients); err != nil {
			return fmt.Errorf("alıcı listesi çözülemedi: %v", err)
		}
	}
	if len(recipients) == 0 {
		return nil
	}

	counts, err := pendingCounts(user.ID)
	if err != nil {
		return err
	}

	var firstErr error
	for category, emails := range recipients {
		tt := models.TransactionType(category)
		count := counts[tt]
		if count == 0 || len(emails) == 0 {
			continue
		}

		label := typeLabels[tt]
		if label == "" {
			label = category
		}
		subject := fmt.Sprintf("Onay bekleyen %s işlemleri", label)
		body := fmt.Sprintf("%s kategorisinde onay bekleyen %d işlem var.\nTarih: %s",
			label, count, now.Format("02.01.2006 15:04"))

		for _, to := range emails {
			if err := mailer.Send(to, subject, body); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// pendingCounts: kullanıcının bekleyen işlemlerinin tipe göre sayıları
func pendingCounts(userID uint) (map[models.TransactionType]int, error) {
	type countRow struct {
		TransactionType models.TransactionType
		Count           int
	}

	var rows []countRow
	err := database.DB.Model(&models.PendingTransaction{}).
		Select("transaction_type, count(*) as count").
		Where("user_id = ? AND status = ?", userID, models.StatusPending).
		Group("transaction_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("bekleyen işlem sayıları okunamadı: %v", err)
	}

	counts := make(map[models.TransactionType]int, len(rows))
	for _, r := range rows {
		counts[r.TransactionType] = r.Count
	}
	return counts, nil
}
