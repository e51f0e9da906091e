package dia

import (
	"testing"

	"onay-backend/internal/database"
	"onay-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyLists: verilen tiplerin liste ve üst fiş metodlarına boş sonuç tanımlar
func emptyLists(erp *fakeERP, types ...models.TransactionType) {
	for _, tt := range types {
		m, _ := MappingFor(tt)
		erp.handleList(m.ListMethod, nil)
		if m.ParentListMethod != "" {
			erp.handleList(m.ParentListMethod, nil)
		}
	}
}

func TestSyncTwoInvoices(t *testing.T) {
	setupTestDB(t)
	erp := newFakeERP(t)
	user := createTestUser(t)

	emptyLists(erp, models.TypeCurrentAccount, models.TypeBank, models.TypeCash)
	erp.handleList("scf_fatura_listele", []map[string]any{
		{"_key": float64(100), "fisno": "FT-100", "toplam": float64(1500.50), "tarih": "2025-03-01", "carikartunvan": "Acme Ltd", "dovizturu": "TL", "aciklama": "Mart faturası"},
		{"_key": float64(101), "fisno": "FT-101", "toplam": "250.75", "tarih": "2025-03-02", "carikartunvan": "Beta AŞ", "dovizturu": "TL"},
	})

	result, err := SyncTransactions(user.ID)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.Synced[models.TypeInvoice])
	assert.Equal(t, 0, result.Synced[models.TypeCurrentAccount])
	assert.Equal(t, 0, result.Synced[models.TypeBank])
	assert.Equal(t, 0, result.Synced[models.TypeCash])

	var rows []models.PendingTransaction
	require.NoError(t, database.DB.Where("user_id = ?", user.ID).Order("dia_record_id").Find(&rows).Error)
	require.Len(t, rows, 2)

	assert.Equal(t, "invoice_100", rows[0].DiaRecordID)
	assert.Equal(t, "invoice_101", rows[1].DiaRecordID)
	assert.Equal(t, models.StatusPending, rows[0].Status)
	assert.Equal(t, models.StatusPending, rows[1].Status)
	assert.Equal(t, "FT-100", rows[0].DocumentNo)
	assert.Equal(t, "Acme Ltd", rows[0].Counterparty)
	assert.Equal(t, "TL", rows[0].Currency, "para birimi saklanırken normalize edilmez")
	assert.Equal(t, "1500.5", rows[0].Amount.String())
	assert.Equal(t, "250.75", rows[1].Amount.String())
	assert.Equal(t, "2025-03-01", rows[0].TransactionDate.Format("2006-01-02"))
}

func TestSyncIdempotentUpsert(t *testing.T) {
	setupTestDB(t)
	erp := newFakeERP(t)
	user := createTestUser(t)

	emptyLists(erp, models.TypeCurrentAccount, models.TypeBank, models.TypeCash)
	erp.handleList("scf_fatura_listele", []map[string]any{
		{"_key": float64(100), "fisno": "FT-100", "toplam": float64(100), "tarih": "2025-03-01"},
	})

	_, err := SyncTransactions(user.ID)
	require.NoError(t, err)
	_, err = SyncTransactions(user.ID)
	require.NoError(t, err)

	var count int64
	database.DB.Model(&models.PendingTransaction{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count, "aynı veriyle ikinci tur yeni satır üretmemeli")

	var row models.PendingTransaction
	require.NoError(t, database.DB.Where("user_id = ?", user.ID).First(&row).Error)
	assert.Equal(t, "invoice_100", row.DiaRecordID)
	assert.Equal(t, "FT-100", row.DocumentNo)
}

func TestSyncRefreshesFieldsButKeepsRejectionReason(t *testing.T) {
	setupTestDB(t)
	erp := newFakeERP(t)
	user := createTestUser(t)

	emptyLists(erp, models.TypeCurrentAccount, models.TypeBank, models.TypeCash)
	erp.handleList("scf_fatura_listele", []map[string]any{
		{"_key": float64(100), "fisno": "FT-100", "toplam": float64(100), "tarih": "2025-03-01"},
	})

	_, err := SyncTransactions(user.ID)
	require.NoError(t, err)

	// Kullanıcı reddetmiş olsun; DIA tarafında işaret henüz değişmemiş
	reason := "Tutar hatalı"
	require.NoError(t, database.DB.Model(&models.PendingTransaction{}).
		Where("user_id = ? AND dia_record_id = ?", user.ID, "invoice_100").
		Updates(map[string]any{"rejection_reason": reason}).Error)

	erp.handleList("scf_fatura_listele", []map[string]any{
		{"_key": float64(100), "fisno": "FT-100-REV", "toplam": float64(200), "tarih": "2025-03-05"},
	})

	_, err = SyncTransactions(user.ID)
	require.NoError(t, err)

	var row models.PendingTransaction
	require.NoError(t, database.DB.Where("user_id = ? AND dia_record_id = ?", user.ID, "invoice_100").First(&row).Error)
	assert.Equal(t, "FT-100-REV", row.DocumentNo, "alanlar son DIA okumasıyla tazelenmeli")
	require.NotNil(t, row.RejectionReason)
	assert.Equal(t, reason, *row.RejectionReason, "red gerekçesi upsert'te korunmalı")
}

func TestSyncStaleCleanup(t *testing.T) {
	setupTestDB(t)
	erp := newFakeERP(t)
	user := createTestUser(t)

	emptyLists(erp, models.TypeInvoice, models.TypeCurrentAccount, models.TypeBank, models.TypeCash)

	// Yerelde üç kayıt: pending olan silinmeli, karar verilmişler kalmalı
	seed := []models.PendingTransaction{
		{UserID: user.ID, DiaRecordID: "invoice_900", TransactionType: models.TypeInvoice, Status: models.StatusPending},
		{UserID: user.ID, DiaRecordID: "invoice_901", TransactionType: models.TypeInvoice, Status: models.StatusApproved},
		{UserID: user.ID, DiaRecordID: "invoice_902", TransactionType: models.TypeInvoice, Status: models.StatusRejected},
	}
	for i := range seed {
		require.NoError(t, database.DB.Create(&seed[i]).Error)
	}

	result, err := SyncTransactions(user.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)

	var remaining []models.PendingTransaction
	require.NoError(t, database.DB.Where("user_id = ?", user.ID).Order("dia_record_id").Find(&remaining).Error)
	require.Len(t, remaining, 2, "pending kayıt silinmeli, onaylı/reddedilmiş kayıtlar kalmalı")
	assert.Equal(t, "invoice_901", remaining[0].DiaRecordID)
	assert.Equal(t, "invoice_902", remaining[1].DiaRecordID)
}

func TestSyncPartialFailureIsolation(t *testing.T) {
	setupTestDB(t)
	erp := newFakeERP(t)
	user := createTestUser(t)

	emptyLists(erp, models.TypeCurrentAccount, models.TypeBank, models.TypeCash)
	erp.handleList("scf_fatura_listele", []map[string]any{
		{"_key": float64(100), "fisno": "FT-100", "toplam": float64(100), "tarih": "2025-03-01"},
	})
	erp.handle("scf_kasa_fisi_listele", func(payload map[string]any) map[string]any {
		return map[string]any{"code": "500", "msg": "sunucu hatası"}
	})

	// Kasa tipinde bekleyen bir kayıt: tip çekilemediği için temizlenmemeli
	stale := models.PendingTransaction{UserID: user.ID, DiaRecordID: "cash_800", TransactionType: models.TypeCash, Status: models.StatusPending}
	require.NoError(t, database.DB.Create(&stale).Error)

	result, err := SyncTransactions(user.ID)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Synced[models.TypeInvoice], "bir tipin hatası diğerlerini durdurmamalı")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "cash")

	var count int64
	database.DB.Model(&models.PendingTransaction{}).
		Where("user_id = ? AND dia_record_id = ?", user.ID, "cash_800").Count(&count)
	assert.Equal(t, int64(1), count, "çekilemeyen tipin pending kayıtları temizlenmemeli")
}

func TestSyncParentListFailureSkipsChildType(t *testing.T) {
	setupTestDB(t)
	erp := newFakeERP(t)
	user := createTestUser(t)

	emptyLists(erp, models.TypeInvoice, models.TypeCurrentAccount, models.TypeCash)
	erp.handleList("bcs_banka_hareketleri_listele", []map[string]any{
		{"_key": float64(70), "fisno": "BNK-70", "tutar": float64(500), "tarih": "2025-03-01", "_key_bcs_banka_fisi": float64(555)},
	})
	erp.handle("bcs_banka_fisi_listele", func(payload map[string]any) map[string]any {
		return map[string]any{"code": "500", "msg": "sunucu hatası"}
	})

	// İşareti üst fişte yaşayan, daha önce onaylanmış satır: üst fiş listesi
	// çekilemezse eksik indeksle pending'e düşürülmemeli
	approved := models.PendingTransaction{
		UserID: user.ID, DiaRecordID: "bank_70", TransactionType: models.TypeBank,
		Status: models.StatusApproved, RawData: `{"_key": 70, "_key_bcs_banka_fisi": 555}`,
	}
	require.NoError(t, database.DB.Create(&approved).Error)

	// Turda görünmeyen pending satır: tip hatalı sayıldığı için temizlenmemeli
	stale := models.PendingTransaction{
		UserID: user.ID, DiaRecordID: "bank_71", TransactionType: models.TypeBank,
		Status: models.StatusPending, RawData: "{}",
	}
	require.NoError(t, database.DB.Create(&stale).Error)

	result, err := SyncTransactions(user.ID)
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "bank")
	assert.Contains(t, result.Errors[0], "üst fiş listesi çekilemedi")
	assert.Equal(t, 0, result.Synced[models.TypeBank], "üst fiş indeksi olmadan tip yazılmamalı")

	var row models.PendingTransaction
	require.NoError(t, database.DB.Where("user_id = ? AND dia_record_id = ?", user.ID, "bank_70").First(&row).Error)
	assert.Equal(t, models.StatusApproved, row.Status, "onaylı satır eksik indeksle pending'e düşmemeli")

	var count int64
	database.DB.Model(&models.PendingTransaction{}).
		Where("user_id = ? AND dia_record_id = ?", user.ID, "bank_71").Count(&count)
	assert.Equal(t, int64(1), count, "hatalı tipin pending satırları temizlenmemeli")
}

func TestSyncErrorOrderIsStable(t *testing.T) {
	setupTestDB(t)
	erp := newFakeERP(t)
	user := createTestUser(t)

	emptyLists(erp, models.TypeCurrentAccount, models.TypeBank)
	fail := func(payload map[string]any) map[string]any {
		return map[string]any{"code": "500", "msg": "sunucu hatası"}
	}
	erp.handle("scf_fatura_listele", fail)
	erp.handle("scf_kasa_fisi_listele", fail)

	result, err := SyncTransactions(user.ID)
	require.NoError(t, err)

	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "invoice:")
	assert.Contains(t, result.Errors[1], "cash:")
}

func TestSyncResolvesStatusFromParentReceipt(t *testing.T) {
	setupTestDB(t)
	erp := newFakeERP(t)
	user := createTestUser(t)

	emptyLists(erp, models.TypeInvoice, models.TypeCurrentAccount, models.TypeCash)
	erp.handleList("bcs_banka_hareketleri_listele", []map[string]any{
		{"_key": float64(70), "fisno": "BNK-70", "tutar": float64(500), "tarih": "2025-03-01", "_key_bcs_banka_fisi": float64(555)},
		{"_key": float64(71), "fisno": "BNK-71", "tutar": float64(600), "tarih": "2025-03-01", "_key_bcs_banka_fisi": float64(556)},
	})
	erp.handleList("bcs_banka_fisi_listele", []map[string]any{
		{"_key": float64(555), "ust_islem_turu": float64(10)}, // kullanıcının onay anahtarı
		{"_key": float64(556)},
	})

	_, err := SyncTransactions(user.ID)
	require.NoError(t, err)

	var rows []models.PendingTransaction
	require.NoError(t, database.DB.Where("user_id = ? AND transaction_type = ?", user.ID, models.TypeBank).
		Order("dia_record_id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, models.StatusApproved, rows[0].Status, "üst fişin onay işareti satıra yansımalı")
	assert.Equal(t, models.StatusPending, rows[1].Status)
}

func TestSyncInjectsCompanyFilter(t *testing.T) {
	setupTestDB(t)
	erp := newFakeERP(t)
	user := createTestUser(t)

	emptyLists(erp, models.TypeInvoice, models.TypeCurrentAccount, models.TypeBank, models.TypeCash)

	_, err := SyncTransactions(user.ID)
	require.NoError(t, err)

	calls := erp.callsFor("scf_fatura_listele")
	require.Len(t, calls, 1)

	filters, ok := calls[0].Payload["filters"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, filters)
	first, ok := filters[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "_level1", first["field"])
	assert.Equal(t, float64(1), first["value"])
	assert.Equal(t, float64(500), calls[0].Payload["limit"])
	assert.Equal(t, float64(0), calls[0].Payload["offset"])
}

func TestSyncNoSessionIsFatal(t *testing.T) {
	setupTestDB(t)
	newFakeERP(t)

	user := &models.User{Name: "Ayarsız", Email: "ayarsiz@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, database.DB.Create(user).Error)

	_, err := SyncTransactions(user.ID)
	assert.ErrorIs(t, err, ErrNoSession)
}
