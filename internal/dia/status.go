package dia

import (
	"onay-backend/internal/models"
)

// markerKeys: kullanıcının üst işlem türü anahtarları
type markerKeys struct {
	Onay     string
	Red      string
	Inceleme string
}

// parentEntry: üst fişin onay işareti ve işlemi yapan DIA kullanıcısı
type parentEntry struct {
	Marker  string
	OwnerID string
}

// ParentIndex: tek senkronizasyon turu boyunca yaşayan, üst fiş anahtarından
// onay işaretine giden geçici harita. Cari hesap ve banka hareketlerinin onay
// işareti kendi satırında değil üst fişte durduğu için gerekir.
type ParentIndex map[string]parentEntry

// buildParentIndex: üst fiş listesinden indeks kurar
func buildParentIndex(records []map[string]any) ParentIndex {
	idx := make(ParentIndex, len(records))
	for _, rec := range records {
		key := keyString(rec["_key"])
		if key == "" {
			continue
		}
		idx[key] = parentEntry{
			Marker:  keyString(rec["ust_islem_turu"]),
			OwnerID: keyString(rec["_user"]),
		}
	}
	return idx
}

// resolveStatus: kaydın yerel onay durumunu belirler. Kayıt üzerindeki
// ust_islem_turu her zaman üst fiş indeksinden önce gelir; ikisi de yoksa ya da
// işaret kullanıcının anahtarlarından birine denk gelmiyorsa durum pending'dir
// (DIA'nın burada takip edilmeyen kendi işlem türleri olabilir).
func resolveStatus(rec map[string]any, m TypeMapping, keys markerKeys, parents ParentIndex) models.TransactionStatus {
	marker := keyString(rec["ust_islem_turu"])

	if marker == "" && m.ParentKeyField != "" && parents != nil {
		if parentKey := keyString(rec[m.ParentKeyField]); parentKey != "" {
			if entry, ok := parents[parentKey]; ok {
				marker = entry.Marker
			}
		}
	}

	switch {
	case marker == "":
		return models.StatusPending
	case keys.Onay != "" && marker == keys.Onay:
		return models.StatusApproved
	case keys.Red != "" && marker == keys.Red:
		return models.StatusRejected
	default:
		return models.StatusPending
	}
}
