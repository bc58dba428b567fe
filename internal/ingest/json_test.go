package ingest

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/invoice-cli/internal/model"
)

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	input := `[
		{"id": "uc-1", "nome": "Padaria Central", "dist_consumo_qtd": 500, "totalPagar": 240},
		{"nome": "Sem Id", "instalacao": "10/2"}
	]`

	recs, err := LoadJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "uc-1", recs[0].ID)
	assert.InDelta(t, 500, recs[0].DistConsumoQtd, 1e-9)
	assert.InDelta(t, 240, recs[0].TotalPagar, 1e-9)
	assert.NotEmpty(t, recs[1].ID)
}

func TestLoadJSON_Empty(t *testing.T) {
	t.Parallel()
	recs, err := LoadJSON(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = LoadJSON(strings.NewReader("[]"))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLoadJSON_Errors(t *testing.T) {
	t.Parallel()
	_, err := LoadJSON(strings.NewReader(`{"id": "x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected '['")

	_, err = LoadJSON(strings.NewReader(`[{"id": 7}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode record 0")
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	t.Parallel()
	in := []*model.CustomerRecord{{ID: "a", Nome: "Alpha", DistOutros: 12.5}}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, in))
	assert.Contains(t, buf.String(), `"dist_outros": 12.5`)

	out, err := LoadJSON(&buf)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, *in[0], *out[0])
}

func TestWriteJSON_Nil(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestReadWriteFile(t *testing.T) {
	t.Parallel()
	in := []*model.CustomerRecord{{ID: "a", Nome: "Alpha", Instalacao: "10/1", DistConsumoQtd: 100}}

	for _, ext := range []string{".json", ".xlsx"} {
		path := filepath.Join(t.TempDir(), "records"+ext)
		require.NoError(t, WriteFile(path, in, XLSXOptions{}), ext)

		out, err := ReadFile(path, XLSXOptions{})
		require.NoError(t, err, ext)
		require.Len(t, out, 1, ext)
		assert.Equal(t, *in[0], *out[0], ext)
	}

	_, err := ReadFile("records.csv", XLSXOptions{})
	assert.Error(t, err)
	assert.Error(t, WriteFile(filepath.Join(t.TempDir(), "x.txt"), in, XLSXOptions{}))
}
