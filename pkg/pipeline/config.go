package pipeline

import (
	"os"
	"strconv"
	"time"
)

// Config carries every externally tunable constant of the pipeline: tier
// thresholds, cache substitution thresholds, lock cooldown and prompt
// timeouts.
type Config struct {
	AutoAcceptThreshold  float64 // overall >= this commits without asking
	SoftConfirmThreshold float64 // overall >= this gets a one-click confirm

	GuildSubstituteThreshold float64 // below this the cached guild replaces OCR
	NameSubstituteThreshold  float64 // below this a differing name is challenged
	CorrectionConfidence     float64 // confidence of a remembered correction

	NameLockCooldown  time.Duration
	ConfirmTimeout    time.Duration
	NameChangeTimeout time.Duration

	OCRLanguage     string
	GeminiAPIKey    string
	GeminiModel     string
	CorrectionsPath string
}

func Default() Config {
	return Config{
		AutoAcceptThreshold:      0.99,
		SoftConfirmThreshold:     0.95,
		GuildSubstituteThreshold: 0.95,
		NameSubstituteThreshold:  0.98,
		CorrectionConfidence:     0.98,
		NameLockCooldown:         24 * time.Hour,
		ConfirmTimeout:           120 * time.Second,
		NameChangeTimeout:        60 * time.Second,
		OCRLanguage:              "eng",
		GeminiModel:              "gemini-1.5-flash",
		CorrectionsPath:          "data/corrections.json",
	}
}

// FromEnv returns the default config with environment overrides applied.
func FromEnv() Config {
	c := Default()
	c.AutoAcceptThreshold = envFloat("TIER_AUTO_ACCEPT", c.AutoAcceptThreshold)
	c.SoftConfirmThreshold = envFloat("TIER_SOFT_CONFIRM", c.SoftConfirmThreshold)
	c.GuildSubstituteThreshold = envFloat("GUILD_SUBSTITUTE_THRESHOLD", c.GuildSubstituteThreshold)
	c.NameSubstituteThreshold = envFloat("NAME_SUBSTITUTE_THRESHOLD", c.NameSubstituteThreshold)
	c.CorrectionConfidence = envFloat("CORRECTION_CONFIDENCE", c.CorrectionConfidence)
	c.NameLockCooldown = envDuration("NAME_LOCK_COOLDOWN", c.NameLockCooldown)
	c.ConfirmTimeout = envDuration("CONFIRM_TIMEOUT", c.ConfirmTimeout)
	c.NameChangeTimeout = envDuration("NAME_CHANGE_TIMEOUT", c.NameChangeTimeout)
	if v := os.Getenv("OCR_LANGUAGE"); v != "" {
		c.OCRLanguage = v
	}
	c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.GeminiModel = v
	}
	if v := os.Getenv("CORRECTIONS_PATH"); v != "" {
		c.CorrectionsPath = v
	}
	return c
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
