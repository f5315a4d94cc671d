package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/hazard-risk-engine/internal/config"
)

func missing(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hazards")
	for _, k := range []string{"PORT", "ENV", "WORKER_COUNT", "MAX_RETRIES", "RESEND_API_KEY", "REPORT_NOTIFY_EMAIL"} {
		t.Setenv(k, "")
	}

	c, err := config.LoadFile(missing(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "development", c.Env)
	assert.False(t, c.IsProduction())
	assert.Equal(t, 2, c.WorkerCount)
	assert.Equal(t, 3, c.MaxRetries)
	assert.Equal(t, 30*time.Second, c.PollInterval)
	assert.Equal(t, 2*time.Minute, c.JobTimeout)
	assert.Equal(t, 25, c.DBMaxOpenConns)
	assert.Empty(t, c.ResendAPIKey)
	assert.Empty(t, c.ReportNotifyEmail)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"DATABASE_URL=postgres://file/hazards\n"+
			"PORT=9000\n"+
			"WORKER_COUNT=5\n"+
			"JOB_TIMEOUT=90s\n",
	), 0o600))
	t.Setenv("PORT", "9100")

	c, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://file/hazards", c.DatabaseURL)
	assert.Equal(t, "9100", c.Port)
	assert.Equal(t, 5, c.WorkerCount)
	assert.Equal(t, 90*time.Second, c.JobTimeout)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ENV", "moon")
	t.Setenv("MAX_RETRIES", "0")

	_, err := config.LoadFile(missing(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "ENV must be")
	assert.Contains(t, err.Error(), "MAX_RETRIES")
}
