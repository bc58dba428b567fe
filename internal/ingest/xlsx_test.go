package ingest

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/invoice-cli/internal/model"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	err := f.Save(path)
	require.NoError(t, err)
	return path
}

func TestReadXLSX_RecordKeys(t *testing.T) {
	t.Parallel()
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"id", "nome", "instalacao", "dist_consumo_qtd", "dist_consumo_tar", "dist_outros"},
			{"uc-1", "Padaria Central", "10/1111111-1", "500", "0.9", "10"},
			{"uc-2", "Mercado Sol", "10/2222222-2", "320.5", "0.85", "0"},
		},
	})

	recs, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "uc-1", recs[0].ID)
	assert.Equal(t, "Padaria Central", recs[0].Nome)
	assert.Equal(t, "10/1111111-1", recs[0].Instalacao)
	assert.InDelta(t, 500, recs[0].DistConsumoQtd, 1e-9)
	assert.InDelta(t, 0.9, recs[0].DistConsumoTar, 1e-9)
	assert.InDelta(t, 10, recs[0].DistOutros, 1e-9)
	assert.InDelta(t, 320.5, recs[1].DistConsumoQtd, 1e-9)
}

func TestReadXLSX_PortugueseLabels(t *testing.T) {
	t.Parallel()
	path := createTestXLSX(t, map[string][][]string{
		"Detalhe Por UC": {
			{"Relatório mensal", ""},
			{"Nome/Razão Social", "INSTALAÇÃO", "Consumo (kWh)", "Boleto EGS", "Coluna Extra"},
			{"Padaria Central", "10/1111111-1", "1.234,5", "R$ 240,00", "ignored"},
		},
	})

	recs, err := ReadXLSX(path, XLSXOptions{SheetName: "Detalhe Por UC", HeaderRow: 1})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, "Padaria Central", recs[0].Nome)
	assert.Equal(t, "10/1111111-1", recs[0].Instalacao)
	assert.InDelta(t, 1234.5, recs[0].DistConsumoQtd, 1e-9)
	assert.InDelta(t, 240, recs[0].DetCreditoTotal, 1e-9)
}

func TestReadXLSX_AssignsMissingIDs(t *testing.T) {
	t.Parallel()
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"nome", "instalacao"},
			{"Sem Id", "10/3333333-3"},
		},
	})

	recs, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	_, err = uuid.Parse(recs[0].ID)
	assert.NoError(t, err)
}

func TestReadXLSX_SkipsBlankRows(t *testing.T) {
	t.Parallel()
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"id", "nome"},
			{"a", "Alpha"},
			{"", ""},
			{"b", "Beta"},
		},
	})

	recs, err := ReadXLSX(path, XLSXOptions{Workers: 4})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, "b", recs[1].ID)
}

func TestReadXLSX_InvalidNumber(t *testing.T) {
	t.Parallel()
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"id", "dist_outros"},
			{"a", "dez"},
		},
	})

	_, err := ReadXLSX(path, XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "dist_outros")
}

func TestReadXLSX_Errors(t *testing.T) {
	t.Parallel()
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"foo", "bar"}, {"1", "2"}},
	})

	tests := []struct {
		name string
		opts XLSXOptions
		msg  string
	}{
		{"unknown headers", XLSXOptions{}, "no recognised columns"},
		{"missing sheet", XLSXOptions{SheetName: "Nope"}, "not found"},
		{"sheet index", XLSXOptions{SheetIndex: 3}, "out of range"},
		{"header row", XLSXOptions{HeaderRow: 9}, "header row 9 out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadXLSX(path, tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestReadXLSX_FileNotFound(t *testing.T) {
	t.Parallel()
	_, err := ReadXLSX("/nonexistent/file.xlsx", XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open file")
}

func TestWriteXLSX_ReadBack(t *testing.T) {
	t.Parallel()
	in := []*model.CustomerRecord{
		{
			ID:             "uc-1",
			Nome:           "Padaria Central",
			Instalacao:     "10/1111111-1",
			DistConsumoQtd: 500,
			DistConsumoTar: 0.9,
			DistCompTotal:  -280,
			TotalPagar:     240,
			EconomiaMes:    40,
		},
	}
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(path, in, XLSXOptions{}))

	out, err := ReadXLSX(path, XLSXOptions{SheetName: "Faturas"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, *in[0], *out[0])
}
