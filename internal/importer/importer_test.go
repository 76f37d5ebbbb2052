package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassabok/kassabok/internal/model"
)

func parseTestdata(t *testing.T) []model.BankTransaction {
	t.Helper()
	f, err := os.Open("../../testdata/bank-export.csv")
	require.NoError(t, err)
	defer f.Close()

	txns, err := (&SwedishParser{}).Parse(f)
	require.NoError(t, err)
	return txns
}

func TestSwedishParser_Parse(t *testing.T) {
	txns := parseTestdata(t)
	assert.Len(t, txns, 4)

	assert.Equal(t, "Kortköp Clas Ohlson", txns[0].Description)
	assert.Equal(t, "-349.00", txns[0].Amount.StringFixed(2))
	assert.Equal(t, "5484381", txns[0].Reference)
	assert.Equal(t, model.TransactionUnbooked, txns[0].Status)
	assert.Equal(t, 2024, txns[0].Date.Year())
	assert.Equal(t, 1, int(txns[0].Date.Month()))
	assert.Equal(t, 3, txns[0].Date.Day())

	// Thousands separated incoming payment.
	assert.True(t, txns[1].Amount.IsPositive())
	assert.Equal(t, "50000.00", txns[1].Amount.StringFixed(2))
}

func TestSwedishParser_GeneratedReference(t *testing.T) {
	txns := parseTestdata(t)
	assert.Equal(t, "20240131_BANKAVGIFT_-125.50", txns[3].Reference)
}

func TestSwedishParser_ColumnOrder(t *testing.T) {
	csv := "Belopp;Beskrivning;Datum\n-1 000,00;Hyra;2024-02-01\n\n"
	txns, err := (&SwedishParser{}).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "Hyra", txns[0].Description)
	assert.Equal(t, "-1000.00", txns[0].Amount.StringFixed(2))
}

func TestSwedishParser_EmptyFile(t *testing.T) {
	txns, err := (&SwedishParser{}).Parse(strings.NewReader("Bokföringsdag;Text;Belopp\n"))
	require.NoError(t, err)
	assert.Nil(t, txns)
}

func TestSwedishParser_MissingColumns(t *testing.T) {
	_, err := (&SwedishParser{}).Parse(strings.NewReader("Text;Saldo\nx;1\n"))
	assert.Error(t, err)
}

func TestSwedishParser_BadDate(t *testing.T) {
	csv := "Bokföringsdag;Text;Belopp\n03/01/2024;desc;-4,00\n"
	_, err := (&SwedishParser{}).Parse(strings.NewReader(csv))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing date")
}

func TestSwedishParser_BadAmount(t *testing.T) {
	csv := "Bokföringsdag;Text;Belopp\n2024-01-03;desc;fyra\n"
	_, err := (&SwedishParser{}).Parse(strings.NewReader(csv))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing amount")
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"125,50", "125.50"},
		{"-1 234,50", "-1234.50"},
		{"1.234,50", "1234.50"},
		{"1\u00a0000,00", "1000.00"},
		{"\u2212250,00", "-250.00"},
		{"42.10", "42.10"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestSwedishParser_Format(t *testing.T) {
	assert.Equal(t, "se", (&SwedishParser{}).Format())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.Nil(t, reg.Get("se"))
	assert.Empty(t, reg.Formats())

	reg.Register(&SwedishParser{})
	for _, name := range []string{"se", "SE", "Se"} {
		p := reg.Get(name)
		require.NotNil(t, p, name)
		assert.Equal(t, "se", p.Format())
	}
	assert.Equal(t, []string{"se"}, reg.Formats())
	assert.Panics(t, func() { reg.Register(&SwedishParser{}) })
}

func TestDefaultRegistry(t *testing.T) {
	assert.Contains(t, DefaultRegistry().Formats(), "se")
}

// inbox creates <root>/import with the given files and returns root.
func inbox(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "import", "processed"), 0o755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, "import", name), []byte(body), 0o644))
	}
	return root
}

func TestScan(t *testing.T) {
	root := inbox(t, map[string]string{
		"mars.csv":    "x",
		"JANUARI.CSV": "xy",
		"notes.txt":   "x",
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "import", "processed", "old.csv"), []byte("x"), 0o644))

	files, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "JANUARI.CSV", files[0].Name)
	assert.Equal(t, int64(2), files[0].Size)
	assert.Equal(t, filepath.Join(root, "import", "mars.csv"), files[1].Path)
}

func TestScan_NoInbox(t *testing.T) {
	files, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "import"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "import", "bank.csv"), []byte("x"), 0o644))

	require.NoError(t, MarkProcessed(root, "bank.csv"))

	assert.NoFileExists(t, filepath.Join(root, "import", "bank.csv"))
	assert.FileExists(t, filepath.Join(root, "import", "processed", "bank.csv"))
}

func TestMarkProcessed_Missing(t *testing.T) {
	assert.Error(t, MarkProcessed(t.TempDir(), "saknas.csv"))
}

func testdataCSV(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("../../testdata/bank-export.csv")
	require.NoError(t, err)
	return string(b)
}

func TestRun(t *testing.T) {
	root := inbox(t, map[string]string{"januari.csv": testdataCSV(t)})
	store := NewStore(root)

	results, err := Run(context.Background(), root, &SwedishParser{}, store)
	require.NoError(t, err)
	assert.Equal(t, []Result{{File: "januari.csv", Parsed: 4, Added: 4}}, results)
	assert.FileExists(t, filepath.Join(root, "import", "processed", "januari.csv"))

	// The same export dropped in again adds nothing.
	require.NoError(t, os.WriteFile(filepath.Join(root, "import", "igen.csv"), []byte(testdataCSV(t)), 0o644))
	results, err = Run(context.Background(), root, &SwedishParser{}, store)
	require.NoError(t, err)
	assert.Equal(t, []Result{{File: "igen.csv", Parsed: 4, Added: 0}}, results)
}

func TestRun_ParseErrorKeepsFile(t *testing.T) {
	root := inbox(t, map[string]string{
		"a.csv": testdataCSV(t),
		"b.csv": "Bokföringsdag;Text;Belopp\n2024-01-03;desc;fyra\n",
	})

	results, err := Run(context.Background(), root, &SwedishParser{}, NewStore(root))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.csv")
	require.Len(t, results, 1)
	assert.Equal(t, "a.csv", results[0].File)
	assert.FileExists(t, filepath.Join(root, "import", "b.csv"))
}

type failingSink struct{}

func (failingSink) Add([]model.BankTransaction) (int, error) { return 0, errors.New("disk full") }

func TestRun_SinkErrorKeepsFile(t *testing.T) {
	root := inbox(t, map[string]string{"a.csv": testdataCSV(t)})

	_, err := Run(context.Background(), root, &SwedishParser{}, failingSink{})
	assert.ErrorContains(t, err, "disk full")
	assert.FileExists(t, filepath.Join(root, "import", "a.csv"))
}

func TestRun_Cancelled(t *testing.T) {
	root := inbox(t, map[string]string{"a.csv": testdataCSV(t)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Run(ctx, root, &SwedishParser{}, NewStore(root))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.FileExists(t, filepath.Join(root, "import", "a.csv"))
}
