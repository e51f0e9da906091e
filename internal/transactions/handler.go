package transactions

import (
	"encoding/json"
	"errors"
	"time"

	"onay-backend/internal/auth"
	"onay-backend/internal/database"
	"onay-backend/internal/dia"
	"onay-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TransactionResponse struct {
	ID              uint            `json:"id"`
	DiaRecordID     string          `json:"dia_record_id"`
	TransactionType string          `json:"transaction_type"`
	TypeLabel       string          `json:"type_label"`
	DocumentNo      string          `json:"document_no"`
	Description     string          `json:"description"`
	Counterparty    string          `json:"counterparty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	TransactionDate string          `json:"transaction_date"`
	Status          string          `json:"status"`
	RejectionReason *string         `json:"rejection_reason"`
	ApprovedAt      *time.Time      `json:"approved_at"`
	RejectedAt      *time.Time      `json:"rejected_at"`
}

type ProcessRequest struct {
	TransactionIDs []uint `json:"transaction_ids"`
	Action         string `json:"action"` // approve / reject / analyze
	Reason         string `json:"reason"`
}

var typeLabels = map[models.TransactionType]string{
	models.TypeInvoice:        "Fatura",
	models.TypeCurrentAccount: "Cari Hesap",
	models.TypeBank:           "Banka",
	models.TypeCash:           "Kasa",
	models.TypeCheckNote:      "Çek/Senet",
	models.TypeOrder:          "Sipariş",
}

// displayCurrency: DIA "TL" döndürür, sunumda ISO koda çevrilir (saklanan
// değere dokunulmaz)
func displayCurrency(currency string) string {
	if currency == "TL" || currency == "" {
		return "TRY"
	}
	return currency
}

func toResponse(t *models.PendingTransaction) TransactionResponse {
	dateStr := ""
	if !t.TransactionDate.IsZero() {
		dateStr = t.TransactionDate.Format("2006-01-02")
	}
	return TransactionResponse{
		ID:              t.ID,
		DiaRecordID:     t.DiaRecordID,
		TransactionType: string(t.TransactionType),
		TypeLabel:       typeLabels[t.TransactionType],
		DocumentNo:      t.DocumentNo,
		Description:     t.Description,
		Counterparty:    t.Counterparty,
		Amount:          t.Amount,
		Currency:        displayCurrency(t.Currency),
		TransactionDate: dateStr,
		Status:          string(t.Status),
		RejectionReason: t.RejectionReason,
		ApprovedAt:      t.ApprovedAt,
		RejectedAt:      t.RejectedAt,
	}
}

func listTransactions(c *fiber.Ctx, userID uint) ([]models.PendingTransaction, error) {
	q := database.DB.Where("user_id = ?", userID)

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if tt := c.Query("type"); tt != "" {
		q = q.Where("transaction_type = ?", tt)
	}

	var rows []models.PendingTransaction
	if err := q.Order("transaction_date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "İşlemler yüklenemedi")
	}
	return rows, nil
}

// ListTransactionsHandler: kullanıcının yerel işlem listesi (status ve type
// query parametreleriyle filtrelenebilir)
func ListTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		rows, err := listTransactions(c, userID)
		if err != nil {
			return err
		}

		responses := make([]TransactionResponse, 0, len(rows))
		for i := range rows {
			responses = append(responses, toResponse(&rows[i]))
		}
		return c.JSON(responses)
	}
}

// SyncHandler: DIA'dan bekleyen işlemleri çekip yerel tabloyu eşitler
func SyncHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		result, err := dia.SyncTransactions(userID)
		if err != nil {
			if errors.Is(err, dia.ErrNoSession) {
				return fiber.NewError(fiber.StatusBadGateway, "DIA oturumu açılamadı. Bağlantı ayarlarını kontrol et.")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Senkronizasyon başarısız: "+err.Error())
		}

		return c.JSON(result)
	}
}

// ProcessHandler: seçili işlemlere onay/red/inceleme uygular
func ProcessHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body ProcessRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if len(body.TransactionIDs) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir işlem seçilmeli")
		}

		action := models.ApprovalAction(body.Action)
		if action != models.ActionApprove && action != models.ActionReject && action != models.ActionAnalyze {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz işlem: approve, reject veya analyze olmalı")
		}

		result, err := dia.ProcessTransactions(userID, body.TransactionIDs, action, body.Reason)
		if err != nil {
			if errors.Is(err, dia.ErrNoSession) {
				return fiber.NewError(fiber.StatusBadGateway, "DIA oturumu açılamadı. Bağlantı ayarlarını kontrol et.")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		return c.JSON(result)
	}
}

// DetailHandler: kaydın güncel DIA detayını olduğu gibi döndürür
func DetailHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz işlem id")
		}

		var row models.PendingTransaction
		if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İşlem bulunamadı")
		}

		tt, key, err := dia.ParseRecordID(row.DiaRecordID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kayıt kimliği çözümlenemedi")
		}

		sess, err := dia.GetValidSession(userID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "DIA oturumu açılamadı. Bağlantı ayarlarını kontrol et.")
		}

		detail, err := dia.FetchDetail(sess, tt, key)
		if err != nil {
			// Detay çekilemezse senkronizasyonda saklanan ham kayda düşülür
			var fallback map[string]any
			if jsonErr := json.Unmarshal([]byte(row.RawData), &fallback); jsonErr == nil {
				return c.JSON(fiber.Map{"detail": fallback, "stale": true})
			}
			return fiber.NewError(fiber.StatusBadGateway, "DIA detayı alınamadı: "+err.Error())
		}

		return c.JSON(fiber.Map{"detail": detail, "stale": false})
	}
}

// HistoryHandler: işlemin onay geçmişi
func HistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz işlem id")
		}

		var row models.PendingTransaction
		if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İşlem bulunamadı")
		}

		var entries []models.ApprovalHistory
		if err := database.DB.Where("transaction_id = ?", row.ID).
			Order("created_at DESC").Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Geçmiş yüklenemedi")
		}

		return c.JSON(entries)
	}
}

// DiaUsersHandler: DIA kullanıcı dizini (önbellekli, görüntüleme amaçlı)
func DiaUsersHandler(cache *dia.DirectoryCache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		dir, err := cache.Users(userID)
		if err != nil {
			if errors.Is(err, dia.ErrNoSession) {
				return fiber.NewError(fiber.StatusBadGateway, "DIA oturumu açılamadı. Bağlantı ayarlarını kontrol et.")
			}
			return fiber.NewError(fiber.StatusBadGateway, "DIA kullanıcı listesi alınamadı: "+err.Error())
		}
		return c.JSON(dir)
	}
}

// ApprovalTypesHandler: DIA üst işlem türleri (önbellekli)
func ApprovalTypesHandler(cache *dia.DirectoryCache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		types, err := cache.ApprovalTypes(userID)
		if err != nil {
			if errors.Is(err, dia.ErrNoSession) {
				return fiber.NewError(fiber.StatusBadGateway, "DIA oturumu açılamadı. Bağlantı ayarlarını kontrol et.")
			}
			return fiber.NewError(fiber.StatusBadGateway, "Üst işlem türleri alınamadı: "+err.Error())
		}
		return c.JSON(types)
	}
}
