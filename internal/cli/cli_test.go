package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guscambraia/aih-v3.5/internal/maintenance"
)

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
database:
  path: %s
log:
  level: error
backup:
  dir: %s
security:
  encryption_key: cli-test-key
  bcrypt_cost: 4
`, filepath.Join(dir, "aih.db"), filepath.Join(dir, "backups"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path, dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{
		{"serve"},
		{"migrate"},
		{"maintenance", "run"},
		{"maintenance", "stats"},
		{"user", "create"},
		{"backup", "create"},
		{"backup", "decrypt"},
	} {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			sub, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], sub.Name())
		})
	}

	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
}

func TestMigrateAndUserCreate(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := execute(t, "migrate", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "database ready")

	out, err = execute(t, "user", "create", "-c", cfgPath, "-u", "admin", "-p", "segredo1", "--name", "Admin")
	require.NoError(t, err)
	assert.Contains(t, out, "user admin created")

	_, err = execute(t, "user", "create", "-c", cfgPath, "-u", "ADMIN", "-p", "segredo1")
	assert.Error(t, err)

	_, err = execute(t, "user", "create", "-c", cfgPath, "-u", "semsenha")
	assert.Error(t, err)

	out, err = execute(t, "maintenance", "stats", "-c", cfgPath)
	require.NoError(t, err)
	var stats maintenance.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.EqualValues(t, 1, stats.Users)
	assert.Zero(t, stats.Records)
}

func TestMaintenanceRun(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := execute(t, "maintenance", "run", "-c", cfgPath)
	require.NoError(t, err)
	var res maintenance.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Zero(t, res.PurgedLogs)
}

func TestBackupCreateAndDecrypt(t *testing.T) {
	cfgPath, dir := writeConfig(t)

	out, err := execute(t, "backup", "create", "-c", cfgPath)
	require.NoError(t, err)
	backupPath := strings.Fields(out)[0]
	assert.True(t, strings.HasPrefix(backupPath, filepath.Join(dir, "backups")))

	plainPath := filepath.Join(dir, "restored.db")
	_, err = execute(t, "backup", "decrypt", "-c", cfgPath, backupPath, plainPath)
	require.NoError(t, err)

	plain, err := os.ReadFile(plainPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(plain, []byte("SQLite format 3\x00")))
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "migrate", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
