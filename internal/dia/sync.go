package dia

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"onay-backend/internal/config"
	"onay-backend/internal/database"
	"onay-backend/internal/models"

	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

// SyncResult: bir senkronizasyon turunun özeti. Success yalnızca hiçbir tip
// hata almadıysa true olur; tip bazlı hatalar Errors'ta toplanır.
type SyncResult struct {
	Success bool                           `json:"success"`
	Synced  map[models.TransactionType]int `json:"synced"`
	Errors  []string                       `json:"errors"`
}

// stagedRow: DIA'dan okunup normalize edilmiş, yazılmayı bekleyen satır
type stagedRow struct {
	DiaRecordID     string
	TransactionType models.TransactionType
	DocumentNo      string
	Description     string
	Counterparty    string
	Amount          decimal.Decimal
	Currency        string
	DateRaw         any
	Status          models.TransactionStatus
	RawData         string
	FirmaKodu       int
}

// SyncTransactions: kullanıcının bekleyen işlemlerini DIA'dan çekip yerel
// tabloyla eşitler. Tip listeleri ve üst fiş indeksleri eş zamanlı çekilir;
// bir dalın hatası diğerlerini durdurmaz. Oturum açılamaması tek ölümcül
// hatadır.
func SyncTransactions(userID uint) (*SyncResult, error) {
	sess, err := GetValidSession(userID)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("%w: kullanıcı bulunamadı", ErrNoSession)
	}
	keys := markerKeys{Onay: user.OnayKey, Red: user.RedKey, Inceleme: user.IncelemeKey}

	// Tip listeleri + üst fiş listeleri tek fan-out'ta çekilir
	var (
		mu          sync.Mutex
		wg          sync.WaitGroup
		fetched     = make(map[models.TransactionType][]map[string]any)
		fetchErrors = make(map[models.TransactionType]string)
		parents     = make(map[models.TransactionType]ParentIndex)
	)

	for _, tt := range syncedTypes {
		wg.Add(1)
		go func(tt models.TransactionType) {
			defer wg.Done()
			m, _ := MappingFor(tt)
			records, err := FetchList(sess, m.Module, m.ListMethod, nil)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fetchErrors[tt] = err.Error()
				return
			}
			fetched[tt] = records
		}(tt)
	}

	for _, tt := range parentIndexedTypes {
		wg.Add(1)
		go func(tt models.TransactionType) {
			defer wg.Done()
			m, _ := MappingFor(tt)
			records, err := FetchList(sess, m.Module, m.ParentListMethod, nil)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Onay işareti üst fişte yaşar; indeks olmadan durum çözümü
				// onaylanmış satırları pending'e düşürür. Tip bu turda hatalı
				// sayılır ve hiç yazılmaz.
				fetchErrors[tt] = fmt.Sprintf("üst fiş listesi çekilemedi: %v", err)
				return
			}
			parents[tt] = buildParentIndex(records)
		}(tt)
	}

	wg.Wait()

	// Normalize et ve aynı turda yinelenen kimlikleri tekilleştir. Üst fiş
	// indeksi çekilemeyen tipler atlanır: eksik indeksle yazmak durumu bozar.
	staged := make(map[string]stagedRow)
	for tt, records := range fetched {
		if _, failed := fetchErrors[tt]; failed {
			continue
		}
		m, _ := MappingFor(tt)
		for _, rec := range records {
			row, err := stageRecord(tt, m, rec, keys, parents[tt], sess.FirmaKodu)
			if err != nil {
				config.GetLogger().WithField("type", string(tt)).
					Warnf("Kayıt normalize edilemedi: %v", err)
				continue
			}
			staged[row.DiaRecordID] = row
		}
	}

	// Upsert: kimlik ve kullanıcının girdiği red gerekçesi dışında her alan
	// DIA'dan gelen son okumayla tazelenir
	counts := make(map[models.TransactionType]int)
	for _, tt := range syncedTypes {
		counts[tt] = 0
	}

	for _, row := range staged {
		if err := upsertRow(userID, row); err != nil {
			fetchErrors[row.TransactionType] = err.Error()
			continue
		}
		counts[row.TransactionType]++
	}

	// Bayatlayan pending kayıtları temizle: tip başarıyla çekildiyse ve kimlik
	// bu turda görünmediyse kayıt DIA tarafında geri çekilmiş demektir.
	// Onaylanmış/reddedilmiş satırlar denetim geçmişi için asla silinmez.
	for tt := range fetched {
		if _, failed := fetchErrors[tt]; failed {
			continue
		}
		ids := make([]string, 0, len(staged))
		for id, row := range staged {
			if row.TransactionType == tt {
				ids = append(ids, id)
			}
		}
		q := database.DB.Where("user_id = ? AND transaction_type = ? AND status = ?",
			userID, tt, models.StatusPending)
		if len(ids) > 0 {
			q = q.Where("dia_record_id NOT IN ?", ids)
		}
		if err := q.Delete(&models.PendingTransaction{}).Error; err != nil {
			fetchErrors[tt] = fmt.Sprintf("bayat kayıt temizliği başarısız: %v", err)
		}
	}

	result := &SyncResult{
		Success: len(fetchErrors) == 0,
		Synced:  counts,
		Errors:  make([]string, 0, len(fetchErrors)),
	}
	for _, tt := range syncedTypes {
		if msg, ok := fetchErrors[tt]; ok {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", tt, msg))
		}
	}
	return result, nil
}

// stageRecord: ham DIA kaydını tip eşlemesine göre normalize eder
func stageRecord(tt models.TransactionType, m TypeMapping, rec map[string]any, keys markerKeys, parents ParentIndex, firmaKodu int) (stagedRow, error) {
	key := keyString(rec["_key"])
	if key == "" {
		return stagedRow{}, errors.New("_key alanı boş")
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return stagedRow{}, fmt.Errorf("ham kayıt saklanamadı: %v", err)
	}

	docNo, _ := rec[m.DocNoField].(string)
	desc, _ := rec["aciklama"].(string)
	counterparty, _ := rec[m.CounterpartyField].(string)
	currency, _ := rec[m.CurrencyField].(string)

	return stagedRow{
		DiaRecordID:     RecordID(tt, key),
		TransactionType: tt,
		DocumentNo:      docNo,
		Description:     desc,
		Counterparty:    counterparty,
		Amount:          parseAmount(rec[m.AmountField]),
		Currency:        currency,
		DateRaw:         rec[m.DateField],
		Status:          resolveStatus(rec, m, keys, parents),
		RawData:         string(raw),
		FirmaKodu:       firmaKodu,
	}, nil
}

func upsertRow(userID uint, row stagedRow) error {
	var existing models.PendingTransaction
	err := database.DB.Where("user_id = ? AND dia_record_id = ?", userID, row.DiaRecordID).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx := models.PendingTransaction{
			UserID:          userID,
			DiaRecordID:     row.DiaRecordID,
			TransactionType: row.TransactionType,
			DocumentNo:      row.DocumentNo,
			Description:     row.Description,
			Counterparty:    row.Counterparty,
			Amount:          row.Amount,
			Currency:        row.Currency,
			TransactionDate: parseDate(row.DateRaw),
			FirmaKodu:       row.FirmaKodu,
			Status:          row.Status,
			RawData:         row.RawData,
		}
		return database.DB.Create(&tx).Error
	}
	if err != nil {
		return err
	}

	return database.DB.Model(&models.PendingTransaction{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"transaction_type": row.TransactionType,
			"document_no":      row.DocumentNo,
			"description":      row.Description,
			"counterparty":     row.Counterparty,
			"amount":           row.Amount,
			"currency":         row.Currency,
			"transaction_date": parseDate(row.DateRaw),
			"firma_kodu":       row.FirmaKodu,
			"status":           row.Status,
			"raw_data":         row.RawData,
		}).Error
}
