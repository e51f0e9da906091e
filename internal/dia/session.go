package dia

import (
	"fmt"
	"time"

	"onay-backend/internal/database"
	"onay-backend/internal/models"
	"onay-backend/internal/secrets"
)

const (
	// Oturum süresi DIA tarafında 30 dakikadır; bitime 2 dakikadan az kala
	// yenileme yapılır
	sessionLifetime     = 30 * time.Minute
	sessionRefreshSlack = 2 * time.Minute
)

// GetValidSession: kullanıcı için geçerli bir DIA oturumu döndürür; gerekirse
// login olur ve yeni oturumu kullanıcı kaydına yazar. Bağlantı bilgisi eksikse
// ya da login başarısızsa ErrNoSession döner.
func GetValidSession(userID uint) (*Session, error) {
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("%w: kullanıcı bulunamadı", ErrNoSession)
	}

	if user.DiaSunucuAdi == "" || user.DiaWsUser == "" || user.DiaWsPassword == "" || user.DiaApiKey == "" {
		return nil, fmt.Errorf("%w: DIA bağlantı bilgileri tanımlanmamış", ErrNoSession)
	}

	apiKey, err := secrets.Decrypt(user.DiaApiKey)
	if err != nil {
		return nil, fmt.Errorf("%w: api key çözülemedi: %v", ErrNoSession, err)
	}
	wsPassword, err := secrets.Decrypt(user.DiaWsPassword)
	if err != nil {
		return nil, fmt.Errorf("%w: şifre çözülemedi: %v", ErrNoSession, err)
	}

	sess := &Session{
		UserID:     user.ID,
		SunucuAdi:  user.DiaSunucuAdi,
		FirmaKodu:  user.DiaFirmaKodu,
		DonemKodu:  user.DiaDonemKodu,
		ApiKey:     apiKey,
		WsUser:     user.DiaWsUser,
		WsPassword: wsPassword,
	}

	// Mevcut oturum hâlâ güvenli aralıktaysa tekrar kullan
	if user.DiaSessionID != "" && user.DiaSessionExpiry != nil &&
		time.Now().Add(sessionRefreshSlack).Before(*user.DiaSessionExpiry) {
		sess.SessionID = user.DiaSessionID
		sess.Expiry = *user.DiaSessionExpiry
		return sess, nil
	}

	if err := login(sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	// Yeni oturumu kullanıcı kaydına yaz
	if err := database.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"dia_session_id":     sess.SessionID,
		"dia_session_expiry": sess.Expiry,
	}).Error; err != nil {
		return nil, fmt.Errorf("%w: oturum kaydedilemedi: %v", ErrNoSession, err)
	}

	return sess, nil
}

// login: DIA sis modülüne login çağrısı yapar. disconnect_same_user her zaman
// gönderilir; DIA aynı kullanıcıyla ikinci oturuma izin vermediği için eski
// oturum düşürülerek açılır. Başarıda oturum id'si msg alanında döner.
func login(s *Session) error {
	payload := map[string]any{
		"username":             s.WsUser,
		"password":             s.WsPassword,
		"disconnect_same_user": true,
		"firma_kodu":           s.FirmaKodu,
		"donem_kodu":           s.DonemKodu,
		"params": map[string]any{
			"apikey": s.ApiKey,
		},
	}

	resp, err := callERP(s.SunucuAdi, "sis", "login", payload)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return &ErpError{Method: "login", Code: resp.Code, Msg: resp.Msg}
	}
	if resp.Msg == "" {
		return &ErpError{Method: "login", Msg: "oturum id'si boş döndü"}
	}

	s.SessionID = resp.Msg
	s.Expiry = time.Now().Add(sessionLifetime)
	return nil
}
