package cortex

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config — подключение и учётные данные приложения.
type Config struct {
	URL       string `json:"url"`
	Insecure  bool   `json:"insecure"`
	Keepalive bool   `json:"keepalive"`

	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	Debit        int    `json:"debit"`
}

// LoadConfig — чтение json-файла конфигурации с дефолтами.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		URL:   "wss://localhost:6868",
		Debit: 1,
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return cfg, fmt.Errorf("%s: client_id and client_secret are required", path)
	}
	return cfg, nil
}
