package dia

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"onay-backend/internal/database"
	"onay-backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:dia_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.PendingTransaction{},
		&models.ApprovalHistory{},
	))

	old := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = old })
}

// createTestUser: DIA bağlantısı tanımlı bir kullanıcı oluşturur
func createTestUser(t *testing.T) *models.User {
	t.Helper()

	expiry := time.Now().Add(25 * time.Minute)
	user := &models.User{
		Name:             "Test Kullanıcı",
		Email:            fmt.Sprintf("test%d@example.com", atomic.AddInt64(&testDBCounter, 1)),
		PasswordHash:     "x",
		Role:             models.RoleUser,
		DiaSunucuAdi:     "demo",
		DiaApiKey:        "apikey-123",
		DiaWsUser:        "ws",
		DiaWsPassword:    "ws-pass",
		DiaFirmaKodu:     1,
		DiaDonemKodu:     1,
		DiaSessionID:     "sess-mevcut",
		DiaSessionExpiry: &expiry,
		OnayKey:          "10",
		RedKey:           "11",
		IncelemeKey:      "12",
	}
	require.NoError(t, database.DB.Create(user).Error)
	return user
}

type erpCall struct {
	Method  string
	Payload map[string]any
}

// fakeERP: tek endpoint üzerinden metod adına göre cevap dönen sahte DIA sunucusu
type fakeERP struct {
	srv      *httptest.Server
	mu       sync.Mutex
	calls    []erpCall
	handlers map[string]func(payload map[string]any) map[string]any
}

func newFakeERP(t *testing.T) *fakeERP {
	t.Helper()

	f := &fakeERP{
		handlers: map[string]func(payload map[string]any) map[string]any{},
	}
	f.handlers["login"] = func(payload map[string]any) map[string]any {
		return map[string]any{"code": "200", "msg": "sess-yeni"}
	}

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var envelope map[string]map[string]any
		if err := json.Unmarshal(body, &envelope); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for method, payload := range envelope {
			f.mu.Lock()
			f.calls = append(f.calls, erpCall{Method: method, Payload: payload})
			handler := f.handlers[method]
			f.mu.Unlock()

			var resp map[string]any
			if handler == nil {
				resp = map[string]any{"code": "404", "msg": "bilinmeyen metod: " + method}
			} else {
				resp = handler(payload)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(f.srv.Close)

	oldURL := endpointURL
	endpointURL = func(sunucuAdi, module string) string {
		return f.srv.URL
	}
	t.Cleanup(func() { endpointURL = oldURL })

	return f
}

// handle: metoda cevap tanımlar
func (f *fakeERP) handle(method string, fn func(payload map[string]any) map[string]any) {
	f.mu.Lock()
	f.handlers[method] = fn
	f.mu.Unlock()
}

// handleList: metoda sabit kayıt listesi döndürür
func (f *fakeERP) handleList(method string, records []map[string]any) {
	f.handle(method, func(payload map[string]any) map[string]any {
		return map[string]any{"code": "200", "msg": "", "result": records}
	})
}

// callsFor: verilen metoda yapılan çağrılar
func (f *fakeERP) callsFor(method string) []erpCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []erpCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}
