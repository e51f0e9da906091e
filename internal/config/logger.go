package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logg *logrus.Logger

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(logrus.InfoLevel)
	logg.SetOutput(os.Stdout)
}

// ApplyLogLevel: LOG_LEVEL env değerini logger'a uygular (config.Load sonrası çağrılır)
func ApplyLogLevel(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logg.Warnf("Geçersiz LOG_LEVEL %q, info kullanılıyor", cfg.LogLevel)
		return
	}
	logg.SetLevel(level)
}
