package ingest

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/invoice-cli/internal/model"
)

// LoadJSON decodes a JSON array of records, the corrector's export format.
// Records without an id get a random one.
func LoadJSON(r io.Reader) ([]*model.CustomerRecord, error) {
	decoder := json.NewDecoder(r)

	tok, err := decoder.Token()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, eris.Wrap(err, "json: read opening token")
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '[' {
		return nil, eris.Errorf("json: expected '[', got %v", tok)
	}

	var records []*model.CustomerRecord
	for decoder.More() {
		var rec model.CustomerRecord
		if err := decoder.Decode(&rec); err != nil {
			return nil, eris.Wrapf(err, "json: decode record %d", len(records))
		}
		assignID(&rec)
		records = append(records, &rec)
	}

	if _, err := decoder.Token(); err != nil && err != io.EOF {
		return nil, eris.Wrap(err, "json: read closing token")
	}
	return records, nil
}

// WriteJSON encodes records as an indented JSON array.
func WriteJSON(w io.Writer, records []*model.CustomerRecord) error {
	if records == nil {
		records = []*model.CustomerRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return eris.Wrap(err, "json: encode records")
	}
	return nil
}

// ReadFile loads records from an .xlsx or .json file by extension.
func ReadFile(path string, opts XLSXOptions) ([]*model.CustomerRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path, opts)
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "ingest: open file")
		}
		defer f.Close() //nolint:errcheck
		return LoadJSON(f)
	default:
		return nil, eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
	}
}

// WriteFile writes records to an .xlsx or .json file by extension.
func WriteFile(path string, records []*model.CustomerRecord, opts XLSXOptions) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return WriteXLSX(path, records, opts)
	case ".json":
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "ingest: create file")
		}
		if err := WriteJSON(f, records); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		return eris.Wrap(f.Close(), "ingest: close file")
	default:
		return eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
	}
}
