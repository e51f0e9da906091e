package dia

import (
	"fmt"
	"strings"

	"onay-backend/internal/models"
)

// TypeMapping: bir işlem tipinin DIA tarafındaki metod adları ve alan eşlemeleri.
// Bu tablo statik konfigürasyondur; DIA'nın tip başına tutarsız alan adlarını
// tek noktada toplar.
type TypeMapping struct {
	Module       string // api/v3/{module}/json
	ListMethod   string
	DetailMethod string
	// true ise detay, anahtar filtresiyle limit 1 liste çağrısı olarak yapılır;
	// false ise detay metodu anahtarı doğrudan parametre alır
	DetailByFilter bool
	UpdateMethod   string // boşsa onay akışı bu tipi desteklemez

	DocNoField        string
	AmountField       string
	DateField         string
	CounterpartyField string
	CurrencyField     string

	// Onay işareti üst fişte yaşayan tipler için üst fiş liste metodu ve
	// satır kaydındaki üst fiş anahtarı alanı
	ParentListMethod string
	ParentKeyField   string

	// Durum açıklama alanının adı tipe göre değişir (fatura: ekalan5, diğerleri: aciklama3)
	AnnotationField string

	// DIA şeması bazı güncellemelerde boş da olsa kalem listesi ister
	NeedsLineItems bool
}

var typeMappings = map[models.TransactionType]TypeMapping{
	models.TypeInvoice: {
		Module:            "scf",
		ListMethod:        "scf_fatura_listele",
		DetailMethod:      "scf_fatura_getir",
		UpdateMethod:      "scf_fatura_ekle",
		DocNoField:        "fisno",
		AmountField:       "toplam",
		DateField:         "tarih",
		CounterpartyField: "carikartunvan",
		CurrencyField:     "dovizturu",
		AnnotationField:   "ekalan5",
	},
	models.TypeCurrentAccount: {
		Module:            "scf",
		ListMethod:        "scf_carihesap_hareketleri_listele",
		DetailMethod:      "scf_carihesap_hareketleri_listele",
		DetailByFilter:    true,
		UpdateMethod:      "scf_carihesap_fisi_ekle",
		DocNoField:        "fisno",
		AmountField:       "tutar",
		DateField:         "tarih",
		CounterpartyField: "carikartunvan",
		CurrencyField:     "dovizturu",
		ParentListMethod:  "scf_carihesap_fisi_listele",
		ParentKeyField:    "_key_scf_carihesap_fisi",
		AnnotationField:   "aciklama3",
		NeedsLineItems:    true,
	},
	models.TypeBank: {
		Module:            "bcs",
		ListMethod:        "bcs_banka_hareketleri_listele",
		DetailMethod:      "bcs_banka_hareketleri_listele",
		DetailByFilter:    true,
		UpdateMethod:      "bcs_banka_fisi_ekle",
		DocNoField:        "fisno",
		AmountField:       "tutar",
		DateField:         "tarih",
		CounterpartyField: "cariunvan",
		CurrencyField:     "dovizturu",
		ParentListMethod:  "bcs_banka_fisi_listele",
		ParentKeyField:    "_key_bcs_banka_fisi",
		AnnotationField:   "aciklama3",
		NeedsLineItems:    true,
	},
	models.TypeCash: {
		Module:            "scf",
		ListMethod:        "scf_kasa_fisi_listele",
		DetailMethod:      "scf_kasa_fisi_listele",
		DetailByFilter:    true,
		UpdateMethod:      "scf_kasa_fisi_ekle",
		DocNoField:        "fisno",
		AmountField:       "tutar",
		DateField:         "tarih",
		CounterpartyField: "cariunvan",
		CurrencyField:     "dovizturu",
		AnnotationField:   "aciklama3",
		NeedsLineItems:    true,
	},
	models.TypeCheckNote: {
		Module:            "bcs",
		ListMethod:        "bcs_cek_senet_listele",
		DetailMethod:      "bcs_cek_senet_listele",
		DetailByFilter:    true,
		DocNoField:        "fisno",
		AmountField:       "tutar",
		DateField:         "tarih",
		CounterpartyField: "cariunvan",
		CurrencyField:     "dovizturu",
	},
	models.TypeOrder: {
		Module:            "scf",
		ListMethod:        "scf_siparis_listele",
		DetailMethod:      "scf_siparis_getir",
		DocNoField:        "fisno",
		AmountField:       "toplam",
		DateField:         "tarih",
		CounterpartyField: "carikartunvan",
		CurrencyField:     "dovizturu",
	},
}

// syncedTypes: senkronizasyon turunun çektiği tipler. Çek/senet ve sipariş
// listeleri onay panosunda gösterilmediği için tur dışında tutulur.
var syncedTypes = []models.TransactionType{
	models.TypeInvoice,
	models.TypeCurrentAccount,
	models.TypeBank,
	models.TypeCash,
}

// parentIndexedTypes: onay işareti kendi kaydında değil üst fişte olan tipler
var parentIndexedTypes = []models.TransactionType{
	models.TypeCurrentAccount,
	models.TypeBank,
}

func MappingFor(tt models.TransactionType) (TypeMapping, bool) {
	m, ok := typeMappings[tt]
	return m, ok
}

// RecordID: kalıcı kimlik, "{tip}_{dia anahtarı}"
func RecordID(tt models.TransactionType, key string) string {
	return fmt.Sprintf("%s_%s", tt, key)
}

// ParseRecordID: dia_record_id'yi tipe ve DIA anahtarına ayırır. Tip adları
// alt çizgi içerdiği için bilinen tip ön ekleri üzerinden eşleştirilir.
func ParseRecordID(id string) (models.TransactionType, string, error) {
	for tt := range typeMappings {
		prefix := string(tt) + "_"
		if strings.HasPrefix(id, prefix) {
			key := strings.TrimPrefix(id, prefix)
			if key == "" {
				return "", "", fmt.Errorf("%w: %q", ErrBadRecordID, id)
			}
			return tt, key, nil
		}
	}
	return "", "", fmt.Errorf("%w: %q", ErrBadRecordID, id)
}
