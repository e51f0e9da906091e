package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const encPrefix = "enc:"

var boxKey *[32]byte

// Init: base64 kodlu 32 byte'lık anahtarı yükler. Boş anahtar şifrelemeyi
// devre dışı bırakır (değerler düz metin saklanır, config katmanı uyarı basar).
func Init(keyB64 string) error {
	if strings.TrimSpace(keyB64) == "" {
		boxKey = nil
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return fmt.Errorf("SECRETS_KEY base64 çözülemedi: %v", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("SECRETS_KEY 32 byte olmalı, %d byte geldi", len(raw))
	}
	var k [32]byte
	copy(k[:], raw)
	boxKey = &k
	return nil
}

// Encrypt: değeri secretbox ile şifreler ve "enc:" ön ekiyle döndürür.
// Anahtar tanımlı değilse değer olduğu gibi döner.
func Encrypt(plain string) (string, error) {
	if boxKey == nil {
		return plain, nil
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("nonce üretilemedi: %v", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plain), &nonce, boxKey)
	return encPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt: "enc:" ön ekli değerleri çözer. Ön eksiz değerler eski düz metin
// kayıtlar kabul edilip olduğu gibi döndürülür.
func Decrypt(stored string) (string, error) {
	if !strings.HasPrefix(stored, encPrefix) {
		return stored, nil
	}
	if boxKey == nil {
		return "", fmt.Errorf("şifreli değer var ama SECRETS_KEY tanımlı değil")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, encPrefix))
	if err != nil {
		return "", fmt.Errorf("şifreli değer çözülemedi: %v", err)
	}
	if len(raw) < 24 {
		return "", fmt.Errorf("şifreli değer bozuk")
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, boxKey)
	if !ok {
		return "", fmt.Errorf("şifreli değer açılamadı (anahtar değişmiş olabilir)")
	}
	return string(plain), nil
}
