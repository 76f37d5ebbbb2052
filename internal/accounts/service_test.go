package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassabok/kassabok/internal/model"
)

func TestNewService_Sorted(t *testing.T) {
	svc := NewService([]model.Account{
		{Number: "3001", Name: "Sales"},
		{Number: "1930", Name: "Bank"},
	})
	all := svc.All()
	require.Len(t, all, 2)
	assert.Equal(t, "1930", all[0].Number)
	assert.Equal(t, "3001", all[1].Number)
}

func TestGetExists(t *testing.T) {
	svc := NewService(DefaultChart("aktiebolag"))

	acct, ok := svc.Get("1930")
	assert.True(t, ok)
	assert.Equal(t, "Företagskonto", acct.Name)

	_, ok = svc.Get("9999")
	assert.False(t, ok)

	assert.True(t, svc.Exists("1930"))
	assert.False(t, svc.Exists("9999"))

	assert.Equal(t, "Företagskonto", svc.Name("1930"))
	assert.Equal(t, "9999", svc.Name("9999"))
}

func TestByClass(t *testing.T) {
	svc := NewService(DefaultChart("aktiebolag"))

	revenue := svc.ByClass(model.ClassRevenue)
	assert.Len(t, revenue, 3)
	for _, a := range revenue {
		assert.Equal(t, byte('3'), a.Number[0])
	}

	assert.Empty(t, svc.ByClass(model.ClassOther))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveRoundTrip(t *testing.T) {
	chart := DefaultChart("aktiebolag")
	svc := NewService(chart)

	dir := t.TempDir()
	require.NoError(t, svc.Save(dir))

	_, err := os.Stat(filepath.Join(dir, "accounts", "kontoplan.csv"))
	require.NoError(t, err)

	svc2, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, svc2.All(), len(chart))

	for _, orig := range chart {
		got, ok := svc2.Get(orig.Number)
		require.True(t, ok, "account %s should exist", orig.Number)
		assert.Equal(t, orig.Name, got.Name)
	}
}
