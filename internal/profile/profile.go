package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where vidya stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// AI configuration
	AIEnabled        bool   // VIDYA_AI_ENABLED
	AIProvider       string // VIDYA_AI_PROVIDER (default: openai)
	AIAPIKey         string // VIDYA_AI_API_KEY
	AIBaseURL        string // VIDYA_AI_BASE_URL (default: https://api.openai.com/v1)
	AIEmbeddingModel string // VIDYA_AI_EMBEDDING_MODEL (default: text-embedding-3-small)

	// Tutoring configuration
	MemoryWindow    int           // VIDYA_MEMORY_WINDOW (default: 10 exchanges)
	SessionTTL      time.Duration // VIDYA_SESSION_TTL (default: 1h)
	MemorySummarize bool          // VIDYA_MEMORY_SUMMARIZE (default: false)
	RetrievalTopK   int           // VIDYA_RETRIEVAL_TOP_K (default: 5)
	QuizQuestions   int           // VIDYA_QUIZ_QUESTIONS (default: 5)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and a credential is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && p.AIAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from VIDYA_* environment variables.
func (p *Profile) FromEnv() {
	p.AIEnabled = os.Getenv("VIDYA_AI_ENABLED") == "true"
	p.AIProvider = getEnvOrDefault("VIDYA_AI_PROVIDER", "openai")
	p.AIAPIKey = os.Getenv("VIDYA_AI_API_KEY")
	p.AIBaseURL = getEnvOrDefault("VIDYA_AI_BASE_URL", "https://api.openai.com/v1")
	p.AIEmbeddingModel = getEnvOrDefault("VIDYA_AI_EMBEDDING_MODEL", "text-embedding-3-small")

	if v := os.Getenv("VIDYA_MEMORY_WINDOW"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &p.MemoryWindow); err != nil {
			slog.Warn("invalid VIDYA_MEMORY_WINDOW, using default", "value", v)
		}
	}
	if v := os.Getenv("VIDYA_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			p.SessionTTL = d
		} else {
			slog.Warn("invalid VIDYA_SESSION_TTL, using default", "value", v)
		}
	}
	p.MemorySummarize = os.Getenv("VIDYA_MEMORY_SUMMARIZE") == "true"
	if v := os.Getenv("VIDYA_RETRIEVAL_TOP_K"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &p.RetrievalTopK); err != nil {
			slog.Warn("invalid VIDYA_RETRIEVAL_TOP_K, using default", "value", v)
		}
	}
	if v := os.Getenv("VIDYA_QUIZ_QUESTIONS"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &p.QuizQuestions); err != nil {
			slog.Warn("invalid VIDYA_QUIZ_QUESTIONS, using default", "value", v)
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes and validates the profile, filling derived defaults.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/vidya"
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("vidya_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.MemoryWindow <= 0 {
		p.MemoryWindow = 10
	}
	if p.SessionTTL <= 0 {
		p.SessionTTL = time.Hour
	}
	if p.RetrievalTopK <= 0 {
		p.RetrievalTopK = 5
	}
	if p.QuizQuestions <= 0 {
		p.QuizQuestions = 5
	}

	return nil
}
