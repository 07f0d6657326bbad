package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
		},
		Source: SourceConfig{
			Backend:           BackendMock,
			BaseURL:           "http://127.0.0.1:8000",
			HTTPTimeout:       5 * time.Second,
			UserAgent:         "brief-test/1.0",
			RequestsPerSecond: 100,
			Burst:             10,
			CacheTTL:          time.Minute,
			Limit:             20,
			AllowPrivateHosts: true,
		},
		Results: defaultConfig().Results,
		Reveal: RevealConfig{
			TypingInterval: time.Millisecond,
			BodyDelay:      time.Millisecond,
			SidePanelDelay: time.Millisecond,
		},
		UI:    defaultConfig().UI,
		Media: defaultConfig().Media,
		Keys:  defaultConfig().Keys,
		Log:   LogConfig{Level: "off"},
	}
}
