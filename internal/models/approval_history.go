package models

import "time"

type ApprovalAction string

const (
	ActionApprove ApprovalAction = "approve"
	ActionReject  ApprovalAction = "reject"
	ActionAnalyze ApprovalAction = "analyze"
)

// ApprovalHistory: her onay/red/inceleme işlemi için değiştirilemez denetim kaydı.
// Sadece eklenir; güncellenmez ve silinmez.
type ApprovalHistory struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	TransactionID uint `gorm:"index;not null" json:"transaction_id"`
	UserID        uint `gorm:"not null" json:"user_id"`

	Action ApprovalAction `gorm:"size:20;not null" json:"action"`

	// Red gerekçesi ya da boş
	Notes string `gorm:"size:255" json:"notes"`

	// DIA güncelleme çağrısının tam cevabı (JSON)
	DiaResponse string `gorm:"type:jsonb" json:"dia_response"`

	CreatedAt time.Time `json:"created_at"`
}
