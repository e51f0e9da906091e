package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeInvoice        TransactionType = "invoice"         // fatura
	TypeCurrentAccount TransactionType = "current_account" // cari hesap hareketi
	TypeBank           TransactionType = "bank"            // banka hareketi
	TypeCash           TransactionType = "cash"            // kasa fişi
	TypeCheckNote      TransactionType = "check_note"      // çek/senet
	TypeOrder          TransactionType = "order"           // sipariş
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusApproved  TransactionStatus = "approved"
	StatusRejected  TransactionStatus = "rejected"
	StatusAnalyzing TransactionStatus = "analyzing"
)

// PendingTransaction: DIA'dan çekilen onay bekleyen işlemin yerel kaydı.
// (user_id, dia_record_id) ikilisi tekildir; dia_record_id "{tip}_{dia anahtarı}"
// formatındadır ve tekrarlanan senkronizasyonlarda idempotent upsert sağlar.
type PendingTransaction struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"index:idx_user_dia_record,unique;not null" json:"user_id"`
	DiaRecordID string `gorm:"size:100;index:idx_user_dia_record,unique;not null" json:"dia_record_id"`

	TransactionType TransactionType `gorm:"size:30;index;not null" json:"transaction_type"`
	DocumentNo      string          `gorm:"size:50" json:"document_no"`
	Description     string          `gorm:"size:255" json:"description"`
	Counterparty    string          `gorm:"size:150" json:"counterparty"`
	Amount          decimal.Decimal `gorm:"type:numeric(18,2)" json:"amount"`
	Currency        string          `gorm:"size:10" json:"currency"` // DIA "TL" olarak saklar, sunumda TRY'ye çevrilir
	TransactionDate time.Time       `json:"transaction_date"`
	FirmaKodu       int             `json:"firma_kodu"`

	Status TransactionStatus `gorm:"size:20;index;not null" json:"status"`

	// DIA'dan gelen ham kayıt; detay görünümü ve üst fiş anahtarı için saklanır
	RawData string `gorm:"type:jsonb" json:"-"`

	RejectionReason *string    `gorm:"size:255" json:"rejection_reason"`
	ApprovedBy      *uint      `json:"approved_by"`
	ApprovedAt      *time.Time `json:"approved_at"`
	RejectedBy      *uint      `json:"rejected_by"`
	RejectedAt      *time.Time `json:"rejected_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
