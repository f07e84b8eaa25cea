// Package twin holds application-wide defaults shared by the config, store and
// command packages.
package twin

import (
	"os"
	"path/filepath"
)

const (
	DefaultAppName       = "career-twin"
	DefaultEnvFile       = ".env"
	DefaultSummaryPath   = "me/summary.txt"
	DefaultProfilePDF    = "me/linkedin.pdf"
	DefaultServerAddr    = ":7860"
	DefaultDatabaseFile  = "transcripts.db"
	DefaultPushoverURL   = "https://api.pushover.net/1/messages.json"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultDeepSeekURL   = "https://api.deepseek.com/v1"
	DefaultGroqURL       = "https://api.groq.com/openai/v1"
)

var (
	DefaultConfigPath  = filepath.Join(userConfigDir(), DefaultAppName)
	DefaultDatabaseDir = filepath.Join(userConfigDir(), DefaultAppName, "data")
)

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return "."
}
