package dia

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"onay-backend/internal/config"
	"onay-backend/internal/database"
	"onay-backend/internal/models"

	"gorm.io/gorm"
)

// ItemResult: toplu onay içindeki tek işlemin sonucu
type ItemResult struct {
	TransactionID uint   `json:"transaction_id"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
}

// ProcessResult: toplu onay/red/inceleme çağrısının sonucu
type ProcessResult struct {
	Success bool         `json:"success"`
	Results []ItemResult `json:"results"`
	Message string       `json:"message"`
}

// ProcessTransactions: verilen yerel işlem id'lerine onay/red/inceleme uygular.
// İşlemler tek tek, sırayla DIA'ya yazılır (aynı oturuma sınırsız paralel
// yazma olmaması için bilinçli bir serileştirme). Tek bir kaydın hatası
// diğerlerini durdurmaz; önceki başarılar geri alınmaz.
func ProcessTransactions(userID uint, transactionIDs []uint, action models.ApprovalAction, reason string) (*ProcessResult, error) {
	sess, err := GetValidSession(userID)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("%w: kullanıcı bulunamadı", ErrNoSession)
	}
	keys := markerKeys{Onay: user.OnayKey, Red: user.RedKey, Inceleme: user.IncelemeKey}

	var rows []models.PendingTransaction
	if err := database.DB.Where("user_id = ? AND id IN ?", userID, transactionIDs).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("işlemler yüklenemedi: %v", err)
	}
	byID := make(map[uint]*models.PendingTransaction, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	results := make([]ItemResult, 0, len(transactionIDs))
	okCount := 0

	for _, id := range transactionIDs {
		row, found := byID[id]
		if !found {
			results = append(results, ItemResult{TransactionID: id, Error: "İşlem bulunamadı"})
			continue
		}

		if err := processOne(sess, user.ID, row, action, reason, keys); err != nil {
			results = append(results, ItemResult{TransactionID: id, Error: err.Error()})
			continue
		}
		results = append(results, ItemResult{TransactionID: id, Success: true})
		okCount++
	}

	failCount := len(results) - okCount
	msg := fmt.Sprintf("%d işlem başarıyla işlendi", okCount)
	if failCount > 0 {
		msg = fmt.Sprintf("%d işlem başarıyla işlendi, %d işlem başarısız", okCount, failCount)
	}

	return &ProcessResult{
		Success: failCount == 0,
		Results: results,
		Message: msg,
	}, nil
}

// processOne: tek kaydı DIA'da günceller, başarıdaysa yerel durumu ve denetim
// kaydını tek veritabanı transaction'ında yazar. DIA çağrısı başarısızsa yerel
// durum hiç değişmez.
func processOne(sess *Session, userID uint, row *models.PendingTransaction, action models.ApprovalAction, reason string, keys markerKeys) error {
	tt, ownKey, err := ParseRecordID(row.DiaRecordID)
	if err != nil {
		return err
	}

	m, ok := MappingFor(tt)
	if !ok || m.UpdateMethod == "" {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, tt)
	}

	targetKey := mutationTarget(row, m, ownKey)
	payload := buildUpdatePayload(sess, m, targetKey, action, reason, keys)

	resp, err := callERP(sess.SunucuAdi, m.Module, m.UpdateMethod, payload)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return &ErpError{Method: m.UpdateMethod, Code: resp.Code, Msg: resp.Msg}
	}

	respJSON, _ := json.Marshal(resp)

	now := time.Now()
	updates := map[string]any{"status": statusForAction(action)}
	switch action {
	case models.ActionApprove:
		updates["approved_by"] = userID
		updates["approved_at"] = now
	case models.ActionReject:
		updates["rejected_by"] = userID
		updates["rejected_at"] = now
		updates["rejection_reason"] = rejectionReason(reason)
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PendingTransaction{}).
			Where("id = ?", row.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("yerel durum güncellenemedi: %v", err)
		}
		entry := models.ApprovalHistory{
			TransactionID: row.ID,
			UserID:        userID,
			Action:        action,
			Notes:         rejectionNotes(action, reason),
			DiaResponse:   string(respJSON),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("denetim kaydı yazılamadı: %v", err)
		}
		return nil
	})
}

// mutationTarget: DIA'da değiştirilecek anahtar. Cari hesap ve banka
// hareketlerinde satırı güncellemenin DIA tarafında etkisi yoktur; hedef, ham
// kayıttaki üst fiş anahtarıdır. Üst fiş anahtarı yoksa satırın kendi
// anahtarına düşülür.
func mutationTarget(row *models.PendingTransaction, m TypeMapping, ownKey string) string {
	if m.ParentKeyField == "" {
		return ownKey
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(row.RawData), &rec); err != nil {
		config.GetLogger().WithField("dia_record_id", row.DiaRecordID).
			Warnf("Ham kayıt çözülemedi, satır anahtarı kullanılıyor: %v", err)
		return ownKey
	}
	if parentKey := keyString(rec[m.ParentKeyField]); parentKey != "" {
		return parentKey
	}
	return ownKey
}

// buildUpdatePayload: tipe özgü DIA güncelleme gövdesi. Kullanıcının ilgili
// üst işlem türü anahtarı tanımlı değilse alan gönderilmez; çağrı yine yapılır
// ama DIA tarafında işaret değişmez (bilinen yumuşak hata modu).
func buildUpdatePayload(sess *Session, m TypeMapping, targetKey string, action models.ApprovalAction, reason string, keys markerKeys) map[string]any {
	kart := map[string]any{
		"_key": asKeyValue(targetKey),
	}

	if opKey := operationKey(action, keys); opKey != "" {
		kart["ust_islem_turu"] = asKeyValue(opKey)
	}

	kart[m.AnnotationField] = annotationText(action, reason)

	if m.NeedsLineItems {
		kart["m_kalemler"] = []any{}
	}

	payload := baseParams(sess)
	payload["kart"] = kart
	return payload
}

func operationKey(action models.ApprovalAction, keys markerKeys) string {
	switch action {
	case models.ActionApprove:
		return keys.Onay
	case models.ActionReject:
		return keys.Red
	case models.ActionAnalyze:
		return keys.Inceleme
	}
	return ""
}

func annotationText(action models.ApprovalAction, reason string) string {
	switch action {
	case models.ActionApprove:
		return "Onaylandı"
	case models.ActionReject:
		return "RED : " + rejectionReason(reason)
	default:
		return ""
	}
}

func rejectionReason(reason string) string {
	if reason == "" {
		return "Belirtilmedi"
	}
	return reason
}

func rejectionNotes(action models.ApprovalAction, reason string) string {
	if action == models.ActionReject {
		return rejectionReason(reason)
	}
	return ""
}

func statusForAction(action models.ApprovalAction) models.TransactionStatus {
	switch action {
	case models.ActionApprove:
		return models.StatusApproved
	case models.ActionReject:
		return models.StatusRejected
	default:
		return models.StatusAnalyzing
	}
}

// asKeyValue: DIA anahtar alanları sayısal bekler; sayıya çevrilemeyen
// anahtarlar metin olarak gönderilir
func asKeyValue(key string) any {
	if n, err := strconv.Atoi(key); err == nil {
		return n
	}
	return key
}
