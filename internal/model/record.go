package model

import (
	"strings"
	"time"
)

// CustomerRecord is one customer's invoice as produced by the spreadsheet
// ingestion pass and consumed by the listing, export and PDF layers.
// JSON keys match the ingestion pipeline's output.
type CustomerRecord struct {
	ID            string `json:"id"`
	Nome          string `json:"nome"`
	Documento     string `json:"documento,omitempty"`
	Endereco      string `json:"endereco,omitempty"`
	Instalacao    string `json:"instalacao"`
	NumConta      string `json:"num_conta,omitempty"`
	EmissaoISO    string `json:"emissao_iso,omitempty"`
	VencimentoISO string `json:"vencimento_iso,omitempty"`

	// Distributor invoice.
	DistConsumoQtd   float64 `json:"dist_consumo_qtd"`
	DistConsumoTar   float64 `json:"dist_consumo_tar"`
	DistConsumoTotal float64 `json:"dist_consumo_total"`
	DistCompQtd      float64 `json:"dist_comp_qtd"`
	DistCompTar      float64 `json:"dist_comp_tar"`
	DistCompTotal    float64 `json:"dist_comp_total"` // negative: credit against consumption
	DistOutros       float64 `json:"dist_outros"`
	DistTotal        float64 `json:"dist_total"`

	// Generation-credit provider (EGS) detail.
	DetCreditoQtd   float64 `json:"det_credito_qtd"`
	DetCreditoTar   float64 `json:"det_credito_tar"`
	DetCreditoTotal float64 `json:"det_credito_total"`

	// Summary.
	TotalPagar          float64 `json:"totalPagar"`
	EconTotalSem        float64 `json:"econ_total_sem"`
	EconTotalCom        float64 `json:"econ_total_com"`
	EconomiaMes         float64 `json:"economiaMes"`
	EconomiaTotal       float64 `json:"economiaTotal,omitempty"`
	Co2Evitado          float64 `json:"co2Evitado"`
	ArvoresEquivalentes float64 `json:"arvoresEquivalentes"`
}

// Key returns the identity used by the editor side table and the store.
// Falls back to the installation number for records ingested without an id.
func (r *CustomerRecord) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Instalacao
}

// Matches reports whether the record's name or installation contains q
// (case-insensitive). An empty query matches everything.
func (r *CustomerRecord) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Nome), q) ||
		strings.Contains(strings.ToLower(r.Instalacao), q)
}

// ReferenceMonth returns the YYYY-MM month of the issue date, or the
// current month when the record carries none.
func (r *CustomerRecord) ReferenceMonth() string {
	if len(r.EmissaoISO) >= 7 {
		return r.EmissaoISO[:7]
	}
	return time.Now().Format("2006-01")
}
