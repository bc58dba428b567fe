// Package ingest reads and writes customer records in the spreadsheet and
// JSON layouts used by the invoice pipeline.
package ingest

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/invoice-cli/internal/model"
)

// column binds a record key to its accessor. Exactly one of text/num is set.
type column struct {
	Key     string
	Aliases []string
	text    func(r *model.CustomerRecord) *string
	num     func(r *model.CustomerRecord) *float64
}

var columns = []column{
	{Key: "id", text: func(r *model.CustomerRecord) *string { return &r.ID }},
	{Key: "nome", Aliases: []string{"Nome/Razão Social", "Cliente"}, text: func(r *model.CustomerRecord) *string { return &r.Nome }},
	{Key: "documento", Aliases: []string{"CPF/CNPJ", "CNPJ"}, text: func(r *model.CustomerRecord) *string { return &r.Documento }},
	{Key: "endereco", Aliases: []string{"Endereço"}, text: func(r *model.CustomerRecord) *string { return &r.Endereco }},
	{Key: "instalacao", Aliases: []string{"Instalação", "Nº Instalação", "UC", "instalacap"}, text: func(r *model.CustomerRecord) *string { return &r.Instalacao }},
	{Key: "num_conta", Aliases: []string{"Nº Conta", "Conta"}, text: func(r *model.CustomerRecord) *string { return &r.NumConta }},
	{Key: "emissao_iso", Aliases: []string{"Emissão"}, text: func(r *model.CustomerRecord) *string { return &r.EmissaoISO }},
	{Key: "vencimento_iso", Aliases: []string{"Vencimento"}, text: func(r *model.CustomerRecord) *string { return &r.VencimentoISO }},

	{Key: "dist_consumo_qtd", Aliases: []string{"Consumo (kWh)"}, num: func(r *model.CustomerRecord) *float64 { return &r.DistConsumoQtd }},
	{Key: "dist_consumo_tar", Aliases: []string{"Tarifa Consumo"}, num: func(r *model.CustomerRecord) *float64 { return &r.DistConsumoTar }},
	{Key: "dist_consumo_total", num: func(r *model.CustomerRecord) *float64 { return &r.DistConsumoTotal }},
	{Key: "dist_comp_qtd", Aliases: []string{"Compensado (kWh)"}, num: func(r *model.CustomerRecord) *float64 { return &r.DistCompQtd }},
	{Key: "dist_comp_tar", Aliases: []string{"Tarifa Compensação"}, num: func(r *model.CustomerRecord) *float64 { return &r.DistCompTar }},
	{Key: "dist_comp_total", num: func(r *model.CustomerRecord) *float64 { return &r.DistCompTotal }},
	{Key: "dist_outros", Aliases: []string{"Outros"}, num: func(r *model.CustomerRecord) *float64 { return &r.DistOutros }},
	{Key: "dist_total", Aliases: []string{"Fatura Distribuidora"}, num: func(r *model.CustomerRecord) *float64 { return &r.DistTotal }},
	{Key: "det_credito_qtd", num: func(r *model.CustomerRecord) *float64 { return &r.DetCreditoQtd }},
	{Key: "det_credito_tar", Aliases: []string{"Tarifa EGS"}, num: func(r *model.CustomerRecord) *float64 { return &r.DetCreditoTar }},
	{Key: "det_credito_total", Aliases: []string{"Boleto EGS"}, num: func(r *model.CustomerRecord) *float64 { return &r.DetCreditoTotal }},
	{Key: "totalPagar", Aliases: []string{"Total a Pagar"}, num: func(r *model.CustomerRecord) *float64 { return &r.TotalPagar }},
	{Key: "econ_total_sem", num: func(r *model.CustomerRecord) *float64 { return &r.EconTotalSem }},
	{Key: "econ_total_com", num: func(r *model.CustomerRecord) *float64 { return &r.EconTotalCom }},
	{Key: "economiaMes", Aliases: []string{"Economia"}, num: func(r *model.CustomerRecord) *float64 { return &r.EconomiaMes }},
	{Key: "economiaTotal", Aliases: []string{"Economia Acumulada"}, num: func(r *model.CustomerRecord) *float64 { return &r.EconomiaTotal }},
	{Key: "co2Evitado", num: func(r *model.CustomerRecord) *float64 { return &r.Co2Evitado }},
	{Key: "arvoresEquivalentes", num: func(r *model.CustomerRecord) *float64 { return &r.ArvoresEquivalentes }},
}

// columnIndex maps normalized header names (keys and aliases) to columns.
var columnIndex = func() map[string]*column {
	idx := make(map[string]*column, len(columns)*2)
	for i := range columns {
		c := &columns[i]
		idx[normalizeHeader(c.Key)] = c
		for _, a := range c.Aliases {
			idx[normalizeHeader(a)] = c
		}
	}
	return idx
}()

// Keys returns the record keys in export order.
func Keys() []string {
	keys := make([]string, len(columns))
	for i, c := range columns {
		keys[i] = c.Key
	}
	return keys
}

// normalizeHeader folds case, strips accents and drops everything that is
// not an ASCII letter or digit, so "Instalação" and "INSTALACAO" compare
// equal.
func normalizeHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseNumber accepts plain ("1234.56") and Brazilian ("R$ 1.234,56")
// notation. Blank cells parse as zero.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" || s == "-" {
		return 0, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: parse number %q", s)
	}
	return v, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
