package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create temporary directory
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "scribe.yml")

	// Write valid config
	validConfig := `version: "1.0"
data_dir: /var/lib/scribe
backend: json
save_interval: 500ms
log_level: debug
`
	err := os.WriteFile(configPath, []byte(validConfig), 0644)
	require.NoError(t, err)

	// Load and validate
	config, err := Load(configPath)
	require.NoError(t, err)
	assert.NotNil(t, config)
	assert.Equal(t, "1.0", config.Version)
	assert.Equal(t, "/var/lib/scribe", config.DataDir)
	assert.Equal(t, BackendJSON, config.Backend)
	assert.Equal(t, 500*time.Millisecond, config.SaveIntervalDuration())
	assert.Equal(t, "debug", config.LogLevel)
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/scribe.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "scribe.yml")

	// Write invalid YAML
	err := os.WriteFile(configPath, []byte("version: [unclosed"), 0644)
	require.NoError(t, err)

	config, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidate_Defaults(t *testing.T) {
	config := &Config{Version: "1.0"}
	require.NoError(t, config.Validate())

	assert.Equal(t, "./data", config.DataDir)
	assert.Equal(t, BackendSQLite, config.Backend)
	assert.Equal(t, 2*time.Second, config.SaveIntervalDuration())
	assert.Equal(t, "info", config.LogLevel)
}

func TestValidate_UnsupportedVersion(t *testing.T) {
	config := &Config{Version: "2.0"}
	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version")
}

func TestValidate_InvalidBackend(t *testing.T) {
	config := &Config{Version: "1.0", Backend: "postgres"}
	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backend")
}

func TestValidate_InvalidSaveInterval(t *testing.T) {
	t.Run("unparsable", func(t *testing.T) {
		config := &Config{Version: "1.0", SaveInterval: "soon"}
		err := config.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid save_interval")
	})

	t.Run("non-positive", func(t *testing.T) {
		config := &Config{Version: "1.0", SaveInterval: "0s"}
		err := config.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	config := &Config{Version: "1.0", LogLevel: "verbose"}
	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log_level")
}

func TestValidate_EnvOverridesDataDir(t *testing.T) {
	t.Setenv("SCRIBE_DATA_DIR", "/mnt/volume")

	config := &Config{Version: "1.0", DataDir: "./data"}
	require.NoError(t, config.Validate())
	assert.Equal(t, "/mnt/volume", config.DataDir)
}

func TestDerivedPaths(t *testing.T) {
	config := &Config{Version: "1.0", DataDir: "/var/lib/scribe"}
	require.NoError(t, config.Validate())

	assert.Equal(t, "/var/lib/scribe/scribe.db", config.DatabasePath())
	assert.Equal(t, "/var/lib/scribe/todo_lists.json", config.FlatFilePath())
}

func TestDefault(t *testing.T) {
	config := Default()
	assert.Equal(t, "1.0", config.Version)
	assert.Equal(t, BackendSQLite, config.Backend)
	assert.Equal(t, 2*time.Second, config.SaveIntervalDuration())
}
