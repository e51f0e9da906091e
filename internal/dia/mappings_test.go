package dia

import (
	"testing"

	"onay-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecordID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		wantType models.TransactionType
		wantKey  string
		wantErr  bool
	}{
		{name: "fatura", id: "invoice_100", wantType: models.TypeInvoice, wantKey: "100"},
		{name: "cari hesap (tip adında alt çizgi var)", id: "current_account_123", wantType: models.TypeCurrentAccount, wantKey: "123"},
		{name: "banka", id: "bank_555", wantType: models.TypeBank, wantKey: "555"},
		{name: "çek senet", id: "check_note_7", wantType: models.TypeCheckNote, wantKey: "7"},
		{name: "bilinmeyen tip", id: "havale_9", wantErr: true},
		{name: "anahtar eksik", id: "invoice_", wantErr: true},
		{name: "boş", id: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotKey, err := ParseRecordID(tt.id)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrBadRecordID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantKey, gotKey)
		})
	}
}

func TestRecordIDRoundTrip(t *testing.T) {
	for tt := range typeMappings {
		id := RecordID(tt, "42")
		gotType, gotKey, err := ParseRecordID(id)
		require.NoError(t, err, id)
		assert.Equal(t, tt, gotType)
		assert.Equal(t, "42", gotKey)
	}
}

func TestTypeMappingTable(t *testing.T) {
	// Fatura açıklamayı ekalan5'e, diğer onaylanabilir tipler aciklama3'e yazar
	inv, ok := MappingFor(models.TypeInvoice)
	require.True(t, ok)
	assert.Equal(t, "ekalan5", inv.AnnotationField)
	assert.False(t, inv.NeedsLineItems)
	assert.Empty(t, inv.ParentKeyField)

	for _, tt := range []models.TransactionType{models.TypeCurrentAccount, models.TypeBank, models.TypeCash} {
		m, ok := MappingFor(tt)
		require.True(t, ok)
		assert.Equal(t, "aciklama3", m.AnnotationField, string(tt))
		assert.True(t, m.NeedsLineItems, string(tt))
	}

	// Onay işareti üst fişte yaşayan tiplerde üst fiş alanları tanımlı olmalı
	for _, tt := range parentIndexedTypes {
		m, _ := MappingFor(tt)
		assert.NotEmpty(t, m.ParentListMethod, string(tt))
		assert.NotEmpty(t, m.ParentKeyField, string(tt))
	}

	// Çek/senet ve sipariş onay akışında güncellenemez
	for _, tt := range []models.TransactionType{models.TypeCheckNote, models.TypeOrder} {
		m, ok := MappingFor(tt)
		require.True(t, ok)
		assert.Empty(t, m.UpdateMethod, string(tt))
	}

	// Her tip liste metodu ve temel alan eşlemesi taşır
	for tt, m := range typeMappings {
		assert.NotEmpty(t, m.Module, string(tt))
		assert.NotEmpty(t, m.ListMethod, string(tt))
		assert.NotEmpty(t, m.AmountField, string(tt))
		assert.NotEmpty(t, m.DateField, string(tt))
	}
}
