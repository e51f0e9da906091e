package dia

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"onay-backend/internal/config"
	"onay-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Session: tek kullanıcıya ait geçici DIA oturum bilgisi
type Session struct {
	UserID     uint
	SessionID  string
	SunucuAdi  string
	FirmaKodu  int
	DonemKodu  int
	ApiKey     string
	WsUser     string
	WsPassword string
	Expiry     time.Time
}

// Filter: DIA liste filtresi; boş operatör eşitlik demektir
type Filter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

const listLimit = 500

var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

// endpointURL: test sunucusuna yönlendirebilmek için değişken olarak tutulur
var endpointURL = func(sunucuAdi, module string) string {
	return fmt.Sprintf("https://%s.%s/api/v3/%s/json", sunucuAdi, diaDomain, module)
}

var diaDomain = "ws.dia.com.tr"

// SetDomain: config'ten DIA domain'ini uygular (main.go çağırır)
func SetDomain(domain string) {
	if strings.TrimSpace(domain) != "" {
		diaDomain = domain
	}
}

// erpResponse: DIA cevap zarfı. msg alanı çift anlamlıdır: login'de başarıda
// oturum id'si, hatada hata metni taşır. Bu belirsizlik bu paketin dışına
// çıkarılmaz; çağıranlar önce code'a bakan yardımcılar kullanır.
type erpResponse struct {
	Code   string          `json:"code"`
	Msg    string          `json:"msg"`
	Result json.RawMessage `json:"result"`
}

func (r *erpResponse) ok() bool {
	return r.Code == "200"
}

// callERP: {"metod": {...}} zarfıyla POST atar, cevabı çözer. Yeniden deneme
// yapılmaz; hatalar ErpError olarak döner.
func callERP(sunucuAdi, module, method string, payload map[string]any) (*erpResponse, error) {
	body, err := json.Marshal(map[string]any{method: payload})
	if err != nil {
		return nil, &ErpError{Method: method, Msg: fmt.Sprintf("istek gövdesi oluşturulamadı: %v", err)}
	}

	url := endpointURL(sunucuAdi, module)

	log := config.GetLogger()
	log.WithFields(logrus.Fields{
		"method": method,
		"module": module,
		"sunucu": sunucuAdi,
	}).Debug("DIA isteği gönderiliyor")

	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, &ErpError{Method: method, Msg: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErpError{Method: method, Msg: fmt.Sprintf("cevap okunamadı: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ErpError{Method: method, Code: strconv.Itoa(resp.StatusCode), Msg: strings.TrimSpace(string(respBody))}
	}

	var parsed erpResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &ErpError{Method: method, Msg: fmt.Sprintf("cevap çözülemedi: %v", err)}
	}

	log.WithFields(logrus.Fields{
		"method": method,
		"code":   parsed.Code,
	}).Debug("DIA cevabı alındı")

	return &parsed, nil
}

// baseParams: her liste/detay/güncelleme çağrısının ortak alanları
func baseParams(s *Session) map[string]any {
	return map[string]any{
		"session_id": s.SessionID,
		"firma_kodu": s.FirmaKodu,
		"donem_kodu": s.DonemKodu,
	}
}

// FetchList: verilen metodla liste çeker. Firma kodu filtresi (_level1) her
// çağrıya zorunlu olarak eklenir. Sayfalama tek sayfadır (limit 500, offset 0);
// tam sayfa dönerse kayıt kaçırma ihtimali loglanır.
func FetchList(s *Session, module, method string, filters []Filter) ([]map[string]any, error) {
	allFilters := append([]Filter{
		{Field: "_level1", Operator: "", Value: s.FirmaKodu},
	}, filters...)

	payload := baseParams(s)
	payload["filters"] = allFilters
	payload["sorts"] = ""
	payload["params"] = map[string]any{}
	payload["limit"] = listLimit
	payload["offset"] = 0

	resp, err := callERP(s.SunucuAdi, module, method, payload)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, &ErpError{Method: method, Code: resp.Code, Msg: resp.Msg}
	}

	var records []map[string]any
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &records); err != nil {
			return nil, &ErpError{Method: method, Msg: fmt.Sprintf("liste çözülemedi: %v", err)}
		}
	}

	if len(records) == listLimit {
		config.GetLogger().WithField("method", method).
			Warnf("DIA listesi %d kayıt limitine ulaştı, sonraki sayfalar çekilmiyor", listLimit)
	}

	return records, nil
}

// FetchDetail: tek kaydın ham DIA detayını döndürür. Bazı tipler anahtarı
// doğrudan parametre alır, bazıları anahtar filtreli limit 1 liste ister.
func FetchDetail(s *Session, tt models.TransactionType, key string) (map[string]any, error) {
	m, ok := MappingFor(tt)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, tt)
	}

	if m.DetailByFilter {
		records, err := FetchList(s, m.Module, m.DetailMethod, []Filter{
			{Field: "_key", Operator: "", Value: key},
		})
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, &ErpError{Method: m.DetailMethod, Msg: fmt.Sprintf("kayıt bulunamadı: %s", key)}
		}
		return records[0], nil
	}

	payload := baseParams(s)
	payload["key"] = key
	payload["params"] = map[string]any{}

	resp, err := callERP(s.SunucuAdi, m.Module, m.DetailMethod, payload)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, &ErpError{Method: m.DetailMethod, Code: resp.Code, Msg: resp.Msg}
	}

	var record map[string]any
	if err := json.Unmarshal(resp.Result, &record); err != nil {
		return nil, &ErpError{Method: m.DetailMethod, Msg: fmt.Sprintf("detay çözülemedi: %v", err)}
	}
	return record, nil
}

// FetchUserDirectory: DIA kullanıcı anahtarı -> kullanıcı adı haritası
func FetchUserDirectory(s *Session) (map[int]string, error) {
	records, err := FetchList(s, "sis", "sis_kullanici_listele", nil)
	if err != nil {
		return nil, err
	}

	dir := make(map[int]string, len(records))
	for _, rec := range records {
		key := keyString(rec["_key"])
		if key == "" {
			continue
		}
		n, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		name, _ := rec["kullaniciadi"].(string)
		if name == "" {
			name, _ = rec["adi"].(string)
		}
		dir[n] = name
	}
	return dir, nil
}

// ApprovalType: üst işlem türü tanımı (görüntüleme amaçlı)
type ApprovalType struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// FetchApprovalTypes: DIA'da tanımlı üst işlem türlerinin listesi
func FetchApprovalTypes(s *Session) ([]ApprovalType, error) {
	records, err := FetchList(s, "scf", "scf_ust_islem_turu_listele", nil)
	if err != nil {
		return nil, err
	}

	types := make([]ApprovalType, 0, len(records))
	for _, rec := range records {
		key := keyString(rec["_key"])
		if key == "" {
			continue
		}
		label, _ := rec["turu"].(string)
		if label == "" {
			label, _ = rec["aciklama"].(string)
		}
		types = append(types, ApprovalType{Key: key, Label: label})
	}
	return types, nil
}

// keyString: DIA anahtar değerlerini metne çevirir. Anahtarlar sayı, sayı
// metni ya da {"_key": n} nesnesi olarak gelebilir; sıfır ve boş değerler
// "yok" kabul edilir.
func keyString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(t)
		if s == "0" {
			return ""
		}
		return s
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		if t == 0 {
			return ""
		}
		return strconv.Itoa(t)
	case json.Number:
		return keyString(t.String())
	case map[string]any:
		return keyString(t["_key"])
	default:
		return ""
	}
}

// parseAmount: DIA tutar alanı sayı ya da metin gelebilir
func parseAmount(v any) decimal.Decimal {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t)
	case string:
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(t), ",", "."))
		if err != nil {
			return decimal.Zero
		}
		return d
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// parseDate: DIA tarihleri "2006-01-02", nadiren "02.01.2006" formatında gelir
func parseDate(v any) time.Time {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", "02.01.2006", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
