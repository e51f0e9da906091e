package dia

import (
	"errors"
	"fmt"
)

// ErrNoSession: kullanıcının DIA bağlantı bilgisi yok ya da login başarısız.
// Senkronizasyon ve onay akışları için toptan durdurucu tek hata budur.
var ErrNoSession = errors.New("DIA oturumu açılamadı")

// ErrUnsupportedType: onay akışının DIA tarafında güncelleyemediği işlem tipi
var ErrUnsupportedType = errors.New("bu işlem tipi için onay desteklenmiyor")

// ErrBadRecordID: dia_record_id "{tip}_{anahtar}" formatına çözülemedi
var ErrBadRecordID = errors.New("dia_record_id çözümlenemedi")

// ErpError: DIA ile iletişim hatası (transport ya da 200 dışı cevap kodu).
// Senkronizasyonda tip başına, onayda işlem başına raporlanır; asla diğer
// dalları durdurmaz.
type ErpError struct {
	Method string
	Code   string
	Msg    string
}

func (e *ErpError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("DIA %s hatası (kod %s): %s", e.Method, e.Code, e.Msg)
	}
	return fmt.Sprintf("DIA %s hatası: %s", e.Method, e.Msg)
}
