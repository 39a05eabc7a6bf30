package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every runtime setting of the service.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	AI        AIConfig
	Assistant AssistantConfig
	Speech    SpeechConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	assistant, err := loadAssistantConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Database:  DatabaseConfig{URL: strings.TrimSpace(os.Getenv("DATABASE_URL"))},
		AI:        ai,
		Assistant: assistant,
		Speech:    speech,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// DatabaseConfig carries the optional Postgres connection string. When
// empty, the in-memory stores are used.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a database has been configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// AIConfig describes the optional Ark chat model behind the assistant's
// reply phrasing. Without credentials the assistant falls back to its
// keyword heuristics.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a model instance from this configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + ARK_MODEL or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// AssistantConfig tunes reply pacing and card limits.
type AssistantConfig struct {
	// TypingDelay is how long clients should show the typing indicator
	// before painting the reply. Reported in reply payloads instead of
	// being hardcoded client-side.
	TypingDelay time.Duration
	// RevealTick is the interval between streamed reveal chunks.
	RevealTick time.Duration
	// CardLimit caps how many restaurant cards one reply carries.
	CardLimit int
	// HistoryLimit caps how many prior turns feed the language model.
	HistoryLimit int
}

func loadAssistantConfig() (AssistantConfig, error) {
	typingMs, err := parseOptionalIntEnv("ASSISTANT_TYPING_DELAY_MS")
	if err != nil {
		return AssistantConfig{}, err
	}
	revealMs, err := parseOptionalIntEnv("ASSISTANT_REVEAL_TICK_MS")
	if err != nil {
		return AssistantConfig{}, err
	}
	cardLimit, err := parseOptionalIntEnv("ASSISTANT_CARD_LIMIT")
	if err != nil {
		return AssistantConfig{}, err
	}
	historyLimit, err := parseOptionalIntEnv("ASSISTANT_HISTORY_LIMIT")
	if err != nil {
		return AssistantConfig{}, err
	}

	cfg := AssistantConfig{
		TypingDelay:  500 * time.Millisecond,
		RevealTick:   50 * time.Millisecond,
		CardLimit:    3,
		HistoryLimit: 5,
	}
	if typingMs != nil {
		cfg.TypingDelay = time.Duration(*typingMs) * time.Millisecond
	}
	if revealMs != nil {
		cfg.RevealTick = time.Duration(*revealMs) * time.Millisecond
	}
	if cardLimit != nil && *cardLimit > 0 {
		cfg.CardLimit = *cardLimit
	}
	if historyLimit != nil && *historyLimit > 0 {
		cfg.HistoryLimit = *historyLimit
	}
	return cfg, nil
}

// SpeechConfig tunes the synthesis directives handed to voice clients.
type SpeechConfig struct {
	Rate     float64
	Pitch    float64
	Volume   float64
	Voice    string
	Language string
	Enabled  bool
}

func loadSpeechConfig() (SpeechConfig, error) {
	rate, err := parseOptionalFloatEnv("SPEECH_TTS_RATE")
	if err != nil {
		return SpeechConfig{}, err
	}
	pitch, err := parseOptionalFloatEnv("SPEECH_TTS_PITCH")
	if err != nil {
		return SpeechConfig{}, err
	}
	volume, err := parseOptionalFloatEnv("SPEECH_TTS_VOLUME")
	if err != nil {
		return SpeechConfig{}, err
	}
	enabled, err := parseBoolEnv("SPEECH_ENABLED", true)
	if err != nil {
		return SpeechConfig{}, err
	}

	cfg := SpeechConfig{
		Rate:     0.9,
		Pitch:    1.0,
		Volume:   0.8,
		Voice:    getEnvOrDefault("SPEECH_TTS_VOICE", ""),
		Language: getEnvOrDefault("SPEECH_LANGUAGE", "en-US"),
		Enabled:  enabled,
	}
	if rate != nil {
		cfg.Rate = *rate
	}
	if pitch != nil {
		cfg.Pitch = *pitch
	}
	if volume != nil {
		cfg.Volume = *volume
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
