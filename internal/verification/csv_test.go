package verification

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassabok/kassabok/internal/model"
)

func TestRoundTrip(t *testing.T) {
	v1 := sale(date(2024, 1, 15))
	v1.ID = "A2024-0001"
	v1.CompanyID = "demo"
	v1.Rows[0].Description = `Kund "Acme", faktura 17`

	v2 := model.Verification{
		ID:          "A2024-0002",
		Date:        date(2024, 1, 20),
		Description: "Rättelse",
		Reverses:    "A2024-0001",
		Rows:        []model.VerificationRow{debit("3001", "127.5"), credit("1930", "127.5")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteVerifications(&buf, []model.Verification{v1, v2}))
	assert.True(t, strings.HasPrefix(buf.String(), "verification_id,"))

	got, err := ReadVerifications(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, v1.ID, got[0].ID)
	assert.True(t, v1.Date.Equal(got[0].Date))
	assert.Equal(t, v1.Description, got[0].Description)
	assert.Equal(t, "demo", got[0].CompanyID)
	require.Len(t, got[0].Rows, 3)
	assert.Equal(t, v1.Rows[0].Description, got[0].Rows[0].Description)
	for i := range v1.Rows {
		assert.Equal(t, v1.Rows[i].Account, got[0].Rows[i].Account)
		assert.True(t, v1.Rows[i].Debit.Equal(got[0].Rows[i].Debit), "debit row %d", i)
		assert.True(t, v1.Rows[i].Credit.Equal(got[0].Rows[i].Credit), "credit row %d", i)
	}

	assert.Equal(t, "A2024-0001", got[1].Reverses)
	require.Len(t, got[1].Rows, 2)
	assert.True(t, got[1].Rows[0].Debit.Equal(dec("127.50")))
}

func TestMarshalLine_FixedDecimals(t *testing.T) {
	v := model.Verification{
		ID:   "A2024-0001",
		Date: date(2024, 1, 15),
		Rows: []model.VerificationRow{debit("5010", "127.5"), credit("1930", "127.5")},
	}
	rec := MarshalLine(v, 0)
	assert.Equal(t, "127.50", rec[colDebit])
	assert.Empty(t, rec[colCredit])
	assert.Equal(t, "1", rec[colRow])

	rec = MarshalLine(v, 1)
	assert.Empty(t, rec[colDebit])
	assert.Equal(t, "127.50", rec[colCredit])
}

func TestAppendVerifications(t *testing.T) {
	var buf bytes.Buffer
	first := sale(date(2024, 1, 15))
	first.ID = "A2024-0001"
	require.NoError(t, WriteVerifications(&buf, []model.Verification{first}))

	second := sale(date(2024, 1, 16))
	second.ID = "A2024-0002"
	require.NoError(t, AppendVerifications(&buf, []model.Verification{second}))

	got, err := ReadVerifications(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A2024-0002", got[1].ID)
}

func TestReadVerifications_Empty(t *testing.T) {
	got, err := ReadVerifications(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ReadVerifications(strings.NewReader(strings.Join(Header, ",") + "\n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadVerifications_BadAmount(t *testing.T) {
	data := strings.Join(Header, ",") + "\nA2024-0001,2024-01-15,x,1,1930,,abc,,,\n"
	_, err := ReadVerifications(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing debit")
}

func TestReadTestdata(t *testing.T) {
	f, err := os.Open("../../testdata/verifikationer-2024.csv")
	require.NoError(t, err)
	defer f.Close()

	vs, err := ReadVerifications(f)
	require.NoError(t, err)
	require.Len(t, vs, 3)

	for _, v := range vs {
		assert.True(t, Validate(v.Rows).Balanced, "%s should balance", v.ID)
		assert.Empty(t, Check(v, defaultAccounts), "%s should pass Check", v.ID)
	}
}
