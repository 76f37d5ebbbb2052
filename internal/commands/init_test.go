package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassabok/kassabok/internal/accounts"
	"github.com/kassabok/kassabok/internal/config"
)

var binaryPath string

func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "kassabok-bin-*")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(tmpDir, "kassabok")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/kassabok")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		os.RemoveAll(tmpDir)
		panic("failed to build binary: " + err.Error())
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

func runKassabok(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func initCompany(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, err := runKassabok(t, "init", dir, "--name", "Exempel AB", "--org-number", "556123-4567")
	require.NoError(t, err, out)
	return dir
}

func TestInit_Layout(t *testing.T) {
	dir := t.TempDir()
	out, err := runKassabok(t, "init", dir, "--name", "Exempel AB")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Initialized Exempel AB")

	for _, d := range []string{"accounts", "verifikationer", "transaktioner", "logs", "exports", "import/processed"} {
		assert.DirExists(t, filepath.Join(dir, filepath.FromSlash(d)))
	}
	for _, f := range []string{config.FileName, accounts.ChartPath, ".gitignore"} {
		assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(f)))
	}

	ignore, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "exports/\nimport/processed/\n", string(ignore))
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runKassabok(t, "init", dir, "--name", "My Company AB")
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "My Company AB", cfg.Company.Name)
	assert.Equal(t, "aktiebolag", cfg.Company.Form)
	assert.Equal(t, config.StorageFile, cfg.Storage.Driver)
}

func TestInit_Accounts(t *testing.T) {
	dir := initCompany(t)

	f, err := os.Open(filepath.Join(dir, accounts.ChartPath))
	require.NoError(t, err)
	defer f.Close()

	accts, err := accounts.ReadAccounts(f)
	require.NoError(t, err)
	assert.Len(t, accts, len(accounts.DefaultChart("aktiebolag")))
}

func TestInit_RequiresName(t *testing.T) {
	dir := t.TempDir()
	_, err := runKassabok(t, "init", dir)
	require.Error(t, err, "init without --name should fail")
}

func TestInit_RefusesExistingCompany(t *testing.T) {
	dir := initCompany(t)
	out, err := runKassabok(t, "init", dir, "--name", "Annat AB")
	require.Error(t, err)
	assert.Contains(t, out, "already exists")
}
