package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	// DIA web servis domain'i ({sunucu_adi}.{domain} şeklinde tamamlanır)
	DiaDomain string

	// Saklanan DIA şifre/apikey'ler için 32 byte'lık base64 anahtar
	SecretsKey string

	// Bildirim mailleri için SMTP ayarları
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:  getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=onay port=5432 sslmode=disable"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		CORSOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		DiaDomain:    getEnv("DIA_DOMAIN", "ws.dia.com.tr"),
		SecretsKey:   getEnv("SECRETS_KEY", ""),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	// Production güvenlik kontrolleri
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}
	if cfg.SecretsKey == "" {
		log.Println("[WARN] SECRETS_KEY tanımlanmamış, DIA şifreleri düz metin olarak saklanacak. Production için mutlaka tanımla.")
	}
	if cfg.SMTPHost == "" {
		log.Println("[WARN] SMTP_HOST tanımlanmamış, bildirim mailleri gönderilemeyecek.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
