package commands_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassabok/kassabok/internal/agentlog"
	"github.com/kassabok/kassabok/internal/export"
)

const saleDraft = `date: 2024-01-15
description: Försäljning
rows:
  - {account: 1930, debit: 50000}
  - {account: 3001, credit: 40000}
  - {account: 2610, credit: 10000}
`

const unbalancedDraft = `date: 2024-01-15
description: Fel
rows:
  - {account: 1930, debit: 100}
  - {account: 3001, credit: 90.50}
`

func writeDraft(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "verifikation.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func bookSale(t *testing.T, dir string) {
	t.Helper()
	out, err := runKassabok(t, "-C", dir, "book", writeDraft(t, saleDraft))
	require.NoError(t, err, out)
}

func TestVerify(t *testing.T) {
	dir := initCompany(t)

	out, err := runKassabok(t, "-C", dir, "verify", writeDraft(t, saleDraft))
	require.NoError(t, err, out)
	assert.Contains(t, out, "50 000,00")
	assert.Contains(t, out, "OK")

	out, err = runKassabok(t, "-C", dir, "verify", writeDraft(t, unbalancedDraft))
	require.Error(t, err)
	assert.Contains(t, out, "9,50")
	assert.Contains(t, out, "balanced")
}

func TestBook(t *testing.T) {
	dir := initCompany(t)

	out, err := runKassabok(t, "-C", dir, "book", writeDraft(t, saleDraft))
	require.NoError(t, err, out)
	assert.Contains(t, out, "Booked A2024-0001 2024-01-15 Försäljning")

	out, err = runKassabok(t, "-C", dir, "book", writeDraft(t, saleDraft))
	require.NoError(t, err, out)
	assert.Contains(t, out, "A2024-0002")

	_, err = os.Stat(filepath.Join(dir, "verifikationer", "2024.csv"))
	require.NoError(t, err)
}

func TestBook_Rejected(t *testing.T) {
	dir := initCompany(t)

	out, err := runKassabok(t, "-C", dir, "book", writeDraft(t, unbalancedDraft))
	require.Error(t, err)
	assert.Contains(t, out, "verification rejected")

	_, err = os.Stat(filepath.Join(dir, "verifikationer", "2024.csv"))
	assert.True(t, os.IsNotExist(err), "nothing is written for a rejected verification")
}

func TestReverse(t *testing.T) {
	dir := initCompany(t)
	bookSale(t, dir)

	out, err := runKassabok(t, "-C", dir, "reverse", "A2024-0001", "--date", "2024-02-01")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Booked reversal A2024-0002 2024-02-01")

	out, err = runKassabok(t, "-C", dir, "reverse", "A2024-0001", "--date", "2024-02-02")
	require.Error(t, err)
	assert.Contains(t, out, "already reversed")

	_, err = runKassabok(t, "-C", dir, "reverse", "A2024-0099")
	require.Error(t, err)
}

func TestReportIncome(t *testing.T) {
	dir := initCompany(t)
	bookSale(t, dir)

	out, err := runKassabok(t, "-C", dir, "report", "income", "--year", "2024")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Resultaträkning 2024-01-01..2024-12-31")
	assert.Contains(t, out, "Nettoomsättning")
	assert.Contains(t, out, "40 000,00")
}

func TestReportBalance(t *testing.T) {
	dir := initCompany(t)
	bookSale(t, dir)

	out, err := runKassabok(t, "-C", dir, "report", "balance", "--as-of", "2024-12-31")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Summa tillgångar")
	assert.Contains(t, out, "Summa eget kapital och skulder")
	assert.Contains(t, out, "50 000,00")
}

func TestExportSRU(t *testing.T) {
	dir := initCompany(t)
	bookSale(t, dir)
	outDir := filepath.Join(t.TempDir(), "sru")

	out, err := runKassabok(t, "-C", dir, "export", "sru", "--year", "2024", "--out", outDir)
	require.NoError(t, err, out)

	info, err := os.ReadFile(filepath.Join(outDir, export.InfoFile))
	require.NoError(t, err)
	assert.Contains(t, string(info), "#ORGNR 165561234567\r\n")

	blanketter, err := os.ReadFile(filepath.Join(outDir, export.BlanketterFile))
	require.NoError(t, err)
	assert.Contains(t, string(blanketter), "#BLANKETT INK2R-2024P4")
	assert.Contains(t, string(blanketter), "#UPPGIFT 7410 40000\r\n")
}

func TestExportPDF(t *testing.T) {
	dir := initCompany(t)
	bookSale(t, dir)
	path := filepath.Join(t.TempDir(), "balans.pdf")

	out, err := runKassabok(t, "-C", dir, "export", "pdf", "balance", "--as-of", "2024-12-31", "-o", path)
	require.NoError(t, err, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))

	_, err = runKassabok(t, "-C", dir, "export", "pdf", "cashflow")
	require.Error(t, err)
}

func TestImport(t *testing.T) {
	dir := initCompany(t)
	src, err := os.ReadFile(filepath.Join("..", "..", "testdata", "bank-export.csv"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "januari.csv"), src, 0o644))

	out, err := runKassabok(t, "-C", dir, "import")
	require.NoError(t, err, out)
	assert.Contains(t, out, "januari.csv: 4 transactions, 4 new")

	_, err = os.Stat(filepath.Join(dir, "import", "processed", "januari.csv"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "transaktioner", "transactions.csv"))
	require.NoError(t, err)

	// The same export again adds nothing.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "igen.csv"), src, 0o644))
	out, err = runKassabok(t, "-C", dir, "import")
	require.NoError(t, err, out)
	assert.Contains(t, out, "igen.csv: 4 transactions, 0 new")
}

func TestAgentLog(t *testing.T) {
	dir := initCompany(t)
	require.NoError(t, agentlog.NewCSVSink(dir).Append(context.Background(), agentlog.Entry{
		Agent:          "bokforing",
		Action:         "book_verification",
		Details:        "Försäljning",
		VerificationID: "A2024-0001",
	}))

	out, err := runKassabok(t, "-C", dir, "agent", "log")
	require.NoError(t, err, out)
	assert.Contains(t, out, "book_verification")
	assert.Contains(t, out, "A2024-0001")
}
