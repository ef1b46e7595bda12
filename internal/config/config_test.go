package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
namespace: mc
aws:
  profile: production
  region: eu-west-1
  regions: ["us-east-1", "eu-west-1"]
setup_dir: /etc/ec2mc/setup
key_file: keys/mc.pem
ip_handlers:
  enabled: true
otel:
  endpoint: localhost:4317
  insecure: true
  traces:
    enabled: true
    sample_rate: 1.0
  metrics:
    enabled: true
metrics:
  textfile: /var/lib/node_exporter/ec2mc.prom
log:
  level: debug
`
	path := writeTempConfig(t, content)
	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "mc", cfg.Namespace)
	assert.Equal(t, []string{"us-east-1", "eu-west-1"}, cfg.AWS.Regions)
	assert.Equal(t, "production", cfg.AWS.Profile)
	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	assert.Equal(t, "/etc/ec2mc/setup", cfg.SetupDir)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "keys/mc.pem"), cfg.KeyFile)
	assert.True(t, cfg.IPHandlers.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTEL.Endpoint)
	assert.True(t, cfg.OTEL.Insecure)
	assert.True(t, cfg.OTEL.Traces.Enabled)
	assert.Equal(t, 1.0, cfg.OTEL.Traces.SampleRate)
	assert.True(t, cfg.OTEL.Metrics.Enabled)
	assert.Equal(t, "/var/lib/node_exporter/ec2mc.prom", cfg.Metrics.Textfile)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTempConfig(t, "namespace: mc\n")
	cfg, err := Load(path)

	require.NoError(t, err)
	dir := filepath.Dir(path)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Empty(t, cfg.AWS.Regions)
	assert.Equal(t, filepath.Join(dir, "aws_setup"), cfg.SetupDir)
	assert.Equal(t, filepath.Join(dir, "mc.pem"), cfg.KeyFile)
	assert.Equal(t, filepath.Join(dir, "ip_handlers"), cfg.IPHandlers.Dir)
	assert.Equal(t, "ec2mc", cfg.OTEL.ServiceName)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "namespace: [mc\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg:  Config{Namespace: "mc"},
		},
		{
			name:    "missing namespace",
			cfg:     Config{},
			wantErr: "namespace",
		},
		{
			name:    "namespace with slash",
			cfg:     Config{Namespace: "mc/prod"},
			wantErr: "namespace",
		},
		{
			name:    "bad region",
			cfg:     Config{Namespace: "mc", AWS: AWSConfig{Regions: []string{"us-east-1", "mars"}}},
			wantErr: `"mars"`,
		},
		{
			name:    "sample rate out of range",
			cfg:     Config{Namespace: "mc", OTEL: OTELConfig{Traces: TracesConfig{SampleRate: 1.5}}},
			wantErr: "sample_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".ec2mc/config.yaml"), ExpandHome(DefaultPath))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "relative", ExpandHome("relative"))
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
