package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestLoadConfigFromFile(t *testing.T) {
	configPath := writeTempConfig(t, `
openai:
  api_key: "sk-from-file"
  model: "gpt-4o-mini"
  qpm: 120
server:
  address: ":9000"
interview:
  default_duration_minutes: 20
  max_duration_minutes: 90
redis:
  address: "localhost:6379"
  transcript_expire_days: 14
`)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "sk-from-file", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 120, cfg.OpenAI.QPM)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, 20, cfg.Interview.DefaultDurationMinutes)
	assert.Equal(t, 90, cfg.Interview.MaxDurationMinutes)
	assert.Equal(t, 14, cfg.Redis.TranscriptExpireDays)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	configPath := writeTempConfig(t, `
openai:
  api_key: "sk-minimal"
`)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 0.7, cfg.OpenAI.Temperature)
	assert.Equal(t, 30, cfg.OpenAI.TimeoutSecs)
	assert.Equal(t, 15, cfg.Interview.DefaultDurationMinutes)
	assert.Equal(t, 60, cfg.Interview.MaxDurationMinutes)
	assert.Equal(t, 16000, cfg.Speech.SampleRate)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	configPath := writeTempConfig(t, `
openai:
  api_key: "sk-from-file"
  model: "gpt-4o"
`)

	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("OPENAI_MODEL", "gpt-4-turbo")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4-turbo", cfg.OpenAI.Model)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	configPath := writeTempConfig(t, "openai: [not: a: mapping")

	_, err := LoadConfig(configPath)
	assert.Error(t, err)
}

func TestCreateSampleConfigRefusesOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	samplePath := filepath.Join(tmpDir, "sample.yaml")

	require.NoError(t, CreateSampleConfig(samplePath))

	// 重复创建应拒绝覆盖
	err := CreateSampleConfig(samplePath)
	assert.Error(t, err)

	// 生成的示例文件能被重新加载
	cfg, err := LoadConfig(samplePath)
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, "interview-reports", cfg.MinIO.ReportsBucket)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, GetDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("not-a-duration", time.Minute))
}
