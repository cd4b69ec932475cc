package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Row rejection reasons. Reasons are stable strings: they appear verbatim in
// API responses and error-report CSVs.
const (
	ReasonMissingModelCode = "missing model code"
	ReasonMissingSkuCode   = "missing sku code"
	ReasonMissingPrice     = "missing price"
	ReasonInvalidPrice     = "invalid price"
	ReasonMissingCategory  = "missing required category"
	ReasonUnknownCategory  = "unknown category id"
	ReasonSkuConflict      = "sku code belongs to another product"
	ReasonUnknownSku       = "unknown sku code"
	ReasonMissingWarehouse = "missing warehouse"
	ReasonUnknownWarehouse = "unknown warehouse"
	ReasonMissingQuantity  = "missing quantity"
	ReasonInvalidQuantity  = "invalid quantity"
	ReasonNegativeQuantity = "negative quantity"
)

// RowError is one rejected input row, retained with its original columns so
// operators can fix and resubmit exactly the rows that failed.
type RowError struct {
	Line   int               `json:"line"`
	Row    map[string]string `json:"row"`
	Reason string            `json:"reason"`
}

// catalogAliases maps normalized header names to canonical catalog columns.
// Anything not listed here becomes a free-form variant attribute.
var catalogAliases = map[string]string{
	"model":          "model",
	"modelcode":      "model",
	"parentcode":     "model",
	"sku":            "sku",
	"skucode":        "sku",
	"variantcode":    "sku",
	"price":          "price",
	"unitprice":      "price",
	"currency":       "currency",
	"title":          "title",
	"name":           "title",
	"productname":    "title",
	"brand":          "brand",
	"category":       "category",
	"subcategory":    "subcategory",
	"subsubcategory": "subsubcategory",
	"description":    "description",
	"color":          "color",
	"colour":         "color",
	"type":           "type",
	"size":           "size",
	"active":         "active",
}

// inventoryAliases maps normalized header names to canonical inventory
// columns. Inventory files carry no attribute bag; unknown columns are
// ignored but still retained for error reports.
var inventoryAliases = map[string]string{
	"sku":           "sku",
	"skucode":       "sku",
	"variantcode":   "sku",
	"warehouse":     "warehouse",
	"warehousename": "warehouse",
	"warehouseid":   "warehouse",
	"city":          "city",
	"cityname":      "city",
	"quantity":      "quantity",
	"qty":           "quantity",
	"stock":         "quantity",
	"amount":        "quantity",
}

// normalizeHeader makes header matching case and punctuation insensitive:
// "Model Code", "model_code" and "ModelCode" all normalize to "modelcode".
func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// row is one parsed CSV data row.
type row struct {
	line  int
	cells map[string]string // canonical column -> trimmed value
	extra map[string]string // unrecognized original header -> trimmed value
	raw   map[string]string // original header -> value, kept for reports
}

func (r row) reject(reason string) RowError {
	return RowError{Line: r.line, Row: r.raw, Reason: reason}
}

// readRows stream-parses a CSV into rows, resolving headers through the
// alias map. It returns the original header order alongside the rows so
// error reports can reproduce the input layout. A missing header row and a
// failing reader are fatal; malformed lines are handled per-row.
func readRows(r io.Reader, aliases map[string]string) ([]row, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("unusable csv input: %w", err)
	}

	canonical := make([]string, len(header))
	for i, h := range header {
		canonical[i] = aliases[normalizeHeader(h)]
	}

	var rows []row
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			// Anything other than a parse error means the reader itself
			// failed (a dropped upload stream, for one) and will keep
			// failing. The file is unusable, not partially rejectable.
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, nil, fmt.Errorf("unusable csv input: %w", err)
			}
			// Malformed line: keep what csv could parse and let validation
			// reject it per-column.
			if len(record) == 0 {
				continue
			}
		}

		rw := row{
			line:  line,
			cells: make(map[string]string),
			extra: make(map[string]string),
			raw:   make(map[string]string, len(header)),
		}
		for i, h := range header {
			var val string
			if i < len(record) {
				val = record[i]
			}
			rw.raw[h] = val

			val = strings.TrimSpace(val)
			if canonical[i] != "" {
				rw.cells[canonical[i]] = val
			} else if val != "" {
				rw.extra[h] = val
			}
		}
		rows = append(rows, rw)
	}

	return rows, header, nil
}

// coerceScalar types a free-form attribute cell: bools and numbers become
// typed values, everything else stays a string.
func coerceScalar(s string) any {
	if strings.EqualFold(s, "true") || strings.EqualFold(s, "false") {
		return strings.EqualFold(s, "true")
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		return f
	}
	return s
}
