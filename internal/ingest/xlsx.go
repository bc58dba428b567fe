package ingest

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/invoice-cli/internal/model"
)

// XLSXOptions configures the spreadsheet reader and writer.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	HeaderRow  int    // zero-based row holding the column names
	Workers    int    // row conversion concurrency; default 1
}

// ReadXLSX reads customer records from a spreadsheet. Columns are matched by
// record key or by one of the Portuguese labels the ingestion pipeline emits;
// unknown columns are ignored and blank rows skipped.
func ReadXLSX(path string, opts XLSXOptions) ([]*model.CustomerRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	if opts.HeaderRow < 0 || opts.HeaderRow >= len(sheet.Rows) {
		return nil, eris.Errorf("xlsx: header row %d out of range (sheet has %d rows)", opts.HeaderRow, len(sheet.Rows))
	}

	header := rowToStrings(sheet.Rows[opts.HeaderRow])
	mapping := make([]*column, len(header))
	matched := 0
	for i, h := range header {
		if c, ok := columnIndex[normalizeHeader(h)]; ok {
			mapping[i] = c
			matched++
		}
	}
	if matched == 0 {
		return nil, eris.Errorf("xlsx: no recognised columns in header row %d", opts.HeaderRow)
	}

	body := sheet.Rows[opts.HeaderRow+1:]
	out := make([]*model.CustomerRecord, len(body))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, row := range body {
		g.Go(func() error {
			rec, err := rowToRecord(rowToStrings(row), mapping)
			if err != nil {
				// +2: one-based, plus the header row itself.
				return eris.Wrapf(err, "xlsx: row %d", opts.HeaderRow+i+2)
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]*model.CustomerRecord, 0, len(out))
	for _, rec := range out {
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

// WriteXLSX writes records to a new spreadsheet with a header row of record
// keys, readable back by ReadXLSX.
func WriteXLSX(path string, records []*model.CustomerRecord, opts XLSXOptions) error {
	name := opts.SheetName
	if name == "" {
		name = "Faturas"
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range columns {
		header.AddCell().SetString(c.Key)
	}

	for _, rec := range records {
		row := sheet.AddRow()
		for _, c := range columns {
			cell := row.AddCell()
			if c.text != nil {
				cell.SetString(*c.text(rec))
			} else {
				cell.SetFloat(*c.num(rec))
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "xlsx: save file")
	}
	return nil
}

// rowToRecord converts one data row. It returns nil for blank rows.
func rowToRecord(cells []string, mapping []*column) (*model.CustomerRecord, error) {
	blank := true
	for _, s := range cells {
		if strings.TrimSpace(s) != "" {
			blank = false
			break
		}
	}
	if blank {
		return nil, nil
	}

	rec := &model.CustomerRecord{}
	for i, s := range cells {
		if i >= len(mapping) || mapping[i] == nil {
			continue
		}
		c := mapping[i]
		if c.text != nil {
			*c.text(rec) = strings.TrimSpace(s)
			continue
		}
		v, err := parseNumber(s)
		if err != nil {
			return nil, eris.Wrapf(err, "column %s", c.Key)
		}
		*c.num(rec) = v
	}
	assignID(rec)
	return rec, nil
}

// assignID gives records ingested without an id a random one.
func assignID(rec *model.CustomerRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
