package settings

import (
	"encoding/json"
	"strings"

	"onay-backend/internal/auth"
	"onay-backend/internal/database"
	"onay-backend/internal/dia"
	"onay-backend/internal/models"
	"onay-backend/internal/secrets"

	"github.com/gofiber/fiber/v2"
)

type DiaSettingsRequest struct {
	SunucuAdi   string `json:"sunucu_adi"`
	ApiKey      string `json:"api_key"`
	WsUser      string `json:"ws_user"`
	WsPassword  string `json:"ws_password"`
	FirmaKodu   int    `json:"firma_kodu"`
	DonemKodu   int    `json:"donem_kodu"`
	OnayKey     string `json:"onay_key"`
	RedKey      string `json:"red_key"`
	IncelemeKey string `json:"inceleme_key"`
}

type NotificationSettingsRequest struct {
	Enabled bool                `json:"enabled"`
	Hours   []int               `json:"hours"`
	Emails  map[string][]string `json:"emails"` // işlem tipi -> alıcı listesi
}

// GetDiaSettingsHandler: DIA ayarlarını döndürür; şifre ve api key maskelenir
func GetDiaSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
		}

		return c.JSON(fiber.Map{
			"sunucu_adi":   user.DiaSunucuAdi,
			"ws_user":      user.DiaWsUser,
			"firma_kodu":   user.DiaFirmaKodu,
			"donem_kodu":   user.DiaDonemKodu,
			"onay_key":     user.OnayKey,
			"red_key":      user.RedKey,
			"inceleme_key": user.IncelemeKey,
			"configured":   user.DiaSunucuAdi != "" && user.DiaWsUser != "" && user.DiaApiKey != "",
		})
	}
}

// UpdateDiaSettingsHandler: DIA bağlantı bilgilerini kaydeder. Şifre ve api
// key şifrelenerek saklanır; mevcut oturum düşürülür ki sonraki çağrı yeni
// bilgilerle login olsun.
func UpdateDiaSettingsHandler(cache *dia.DirectoryCache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body DiaSettingsRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.SunucuAdi = strings.TrimSpace(body.SunucuAdi)
		body.WsUser = strings.TrimSpace(body.WsUser)

		if body.SunucuAdi == "" || body.WsUser == "" || body.WsPassword == "" || body.ApiKey == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Sunucu adı, web servis kullanıcısı, şifre ve api key zorunlu")
		}

		encKey, err := secrets.Encrypt(body.ApiKey)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Api key şifrelenemedi")
		}
		encPassword, err := secrets.Encrypt(body.WsPassword)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre şifrelenemedi")
		}

		updates := map[string]any{
			"dia_sunucu_adi":     body.SunucuAdi,
			"dia_api_key":        encKey,
			"dia_ws_user":        body.WsUser,
			"dia_ws_password":    encPassword,
			"dia_firma_kodu":     body.FirmaKodu,
			"dia_donem_kodu":     body.DonemKodu,
			"onay_key":           body.OnayKey,
			"red_key":            body.RedKey,
			"inceleme_key":       body.IncelemeKey,
			"dia_session_id":     "",
			"dia_session_expiry": nil,
		}

		if err := database.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ayarlar kaydedilemedi")
		}

		cache.Invalidate(userID)

		return c.JSON(fiber.Map{"message": "DIA ayarları kaydedildi"})
	}
}

// GetNotificationSettingsHandler: bildirim tercihlerini döndürür
func GetNotificationSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
		}

		hours := []int{}
		if user.NotificationHours != "" {
			_ = json.Unmarshal([]byte(user.NotificationHours), &hours)
		}
		emails := map[string][]string{}
		if user.NotificationEmails != "" {
			_ = json.Unmarshal([]byte(user.NotificationEmails), &emails)
		}

		return c.JSON(fiber.Map{
			"enabled": user.NotificationsEnabled,
			"hours":   hours,
			"emails":  emails,
		})
	}
}

// UpdateNotificationSettingsHandler: bildirim tercihlerini kaydeder
func UpdateNotificationSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body NotificationSettingsRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		for _, h := range body.Hours {
			if h < 0 || h > 23 {
				return fiber.NewError(fiber.StatusBadRequest, "Bildirim saatleri 0-23 aralığında olmalı")
			}
		}

		hoursJSON, err := json.Marshal(body.Hours)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Saat listesi kaydedilemedi")
		}
		emailsJSON, err := json.Marshal(body.Emails)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Alıcı listesi kaydedilemedi")
		}

		updates := map[string]any{
			"notifications_enabled": body.Enabled,
			"notification_hours":    string(hoursJSON),
			"notification_emails":   string(emailsJSON),
		}

		if err := database.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ayarlar kaydedilemedi")
		}

		return c.JSON(fiber.Map{"message": "Bildirim ayarları kaydedildi"})
	}
}
