package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves the test into an empty directory with no user config.
func chdirTemp(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	t.Chdir(tempDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tempDir, "xdg"))
	t.Setenv("HOME", filepath.Join(tempDir, "home"))
	return tempDir
}

func TestFindConfigPath_ReturnsLocalConfig_When_FileExists(t *testing.T) {
	chdirTemp(t)

	require.NoError(t, os.WriteFile(FileName, []byte("binary: yt-dlp\n"), 0o600))

	assert.Equal(t, FileName, FindConfigPath())
}

func TestFindConfigPath_UsesXDGPath_When_LocalMissing(t *testing.T) {
	tempDir := chdirTemp(t)

	configDir := filepath.Join(tempDir, "xdg", "dlpstream")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	configPath := filepath.Join(configDir, FileName)
	require.NoError(t, os.WriteFile(configPath, []byte("format: json\n"), 0o600))

	assert.Equal(t, configPath, FindConfigPath())
}

func TestFindConfigPath_ReturnsEmpty_When_NoConfigAvailable(t *testing.T) {
	chdirTemp(t)

	assert.Empty(t, FindConfigPath())
}

func TestLoad_MergesYAMLOverrides_When_FilePresent(t *testing.T) {
	chdirTemp(t)

	yamlContent := "" +
		"binary: /opt/bin/yt-dlp\n" +
		"default_args:\n" +
		"  - --newline\n" +
		"  - --no-colors\n" +
		"format: text\n" +
		"theme: mono\n" +
		"no_color: true\n" +
		"debug: true\n" +
		"log_level: info\n" +
		"log_file: /tmp/dlpstream.log\n" +
		"max_line_length: 4096\n"
	require.NoError(t, os.WriteFile(FileName, []byte(yamlContent), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/opt/bin/yt-dlp", cfg.Binary)
	assert.Equal(t, []string{"--newline", "--no-colors"}, cfg.DefaultArgs)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, "mono", cfg.Theme)
	assert.True(t, cfg.NoColor)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "/tmp/dlpstream.log", cfg.LogFile)
	assert.Equal(t, 4096, cfg.MaxLineLength)
	assert.Equal(t, FileName, cfg.Source)
}

func TestLoad_ReturnsDefaults_When_NoConfigFound(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Defaults(), cfg)
	assert.Empty(t, cfg.Source)
}

func TestLoad_KeepsDefaults_When_YAMLOmitsKeys(t *testing.T) {
	chdirTemp(t)

	require.NoError(t, os.WriteFile(FileName, []byte("no_color: true\nmax_line_length: 0\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultBinary, cfg.Binary)
	assert.Equal(t, DefaultFormat, cfg.Format)
	assert.Equal(t, DefaultMaxLineLength, cfg.MaxLineLength)
	assert.True(t, cfg.NoColor)
}

func TestLoad_ReturnsError_When_YAMLInvalid(t *testing.T) {
	chdirTemp(t)

	require.NoError(t, os.WriteFile(FileName, []byte("binary: [unterminated\n"), 0o600))

	_, err := Load("")
	assert.ErrorContains(t, err, "parsing config file")
}

func TestLoad_ReturnsError_When_ExplicitPathMissing(t *testing.T) {
	tempDir := chdirTemp(t)

	_, err := Load(filepath.Join(tempDir, "missing.yaml"))
	assert.ErrorContains(t, err, "reading config file")
}

func TestApplyEnv_OverridesFileValues_When_VariablesSet(t *testing.T) {
	t.Setenv("DLPSTREAM_BIN", "youtube-dl")
	t.Setenv("DLPSTREAM_FORMAT", "JSON")
	t.Setenv("DLPSTREAM_NO_COLOR", "")
	t.Setenv("NO_COLOR", "1")
	t.Setenv("DLPSTREAM_DEBUG", "true")

	cfg := Defaults()
	ApplyEnv(cfg)

	assert.Equal(t, "youtube-dl", cfg.Binary)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.True(t, cfg.NoColor)
	assert.True(t, cfg.Debug)
}

func TestApplyEnv_IgnoresUnparseableBooleans_When_Malformed(t *testing.T) {
	t.Setenv("DLPSTREAM_BIN", "")
	t.Setenv("DLPSTREAM_FORMAT", "")
	t.Setenv("DLPSTREAM_NO_COLOR", "sometimes")
	t.Setenv("DLPSTREAM_DEBUG", "maybe")

	cfg := Defaults()
	ApplyEnv(cfg)

	assert.Equal(t, Defaults(), cfg)
}

func TestMergeWithFlags_PrefersExplicitFlags_When_Set(t *testing.T) {
	t.Parallel()

	base := Defaults()
	base.NoColor = true
	base.DefaultArgs = []string{"--newline"}

	merged := MergeWithFlags(base, CliFlags{
		Binary:        "./yt-dlp",
		Format:        "TUI",
		NoColor:       false,
		NoColorSet:    true,
		MaxLineLength: 512,
	})

	assert.Equal(t, "./yt-dlp", merged.Binary)
	assert.Equal(t, FormatTUI, merged.Format)
	assert.False(t, merged.NoColor)
	assert.Equal(t, 512, merged.MaxLineLength)

	merged.DefaultArgs[0] = "changed"
	assert.Equal(t, "--newline", base.DefaultArgs[0], "merge must not alias the base config")
	assert.True(t, base.NoColor)
}

func TestMergeWithFlags_EnablesDebugLogging_When_DebugWithoutLevel(t *testing.T) {
	t.Parallel()

	merged := MergeWithFlags(Defaults(), CliFlags{Debug: true, DebugSet: true})
	assert.True(t, merged.Debug)
	assert.Equal(t, "DEBUG", merged.LogLevel)

	merged = MergeWithFlags(Defaults(), CliFlags{Debug: true, DebugSet: true, LogLevel: "warn"})
	assert.Equal(t, "warn", merged.LogLevel)
}

func TestValidate_RejectsUnknownValues_When_Misconfigured(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	cfg.Format = "xml"
	assert.ErrorContains(t, cfg.Validate(), "unknown format")

	cfg = Defaults()
	cfg.Binary = "  "
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.LogLevel = "chatty"
	assert.ErrorContains(t, cfg.Validate(), "unknown log level")
}
