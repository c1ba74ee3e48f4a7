package normalizer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/chemviz/equipment-api/internal/domain"
)

// ErrUnsupportedFormat is returned when an uploaded file is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// headerMapping maps normalized external column headers to canonical
// internal field names. Headers are matched case-insensitively after
// trimming; columns outside this mapping are ignored.
var headerMapping = map[string]string{
	"equipment name": domain.FieldEquipmentName,
	"type":           domain.FieldType,
	"flowrate":       domain.FieldFlowrate,
	"pressure":       domain.FieldPressure,
	"temperature":    domain.FieldTemperature,
}

var numericFields = map[string]bool{
	domain.FieldFlowrate:    true,
	domain.FieldPressure:    true,
	domain.FieldTemperature: true,
}

// resolvedColumn is a source column bound to a canonical field.
type resolvedColumn struct {
	index    int
	label    string
	internal string
}

// Normalize parses raw tabular content into canonical records. The
// result is all-or-nothing: either every data row is valid and one
// record per row is returned, or a *domain.ValidationFailure carrying
// the complete accumulated error list is returned. maxSize, when
// positive, bounds the accepted payload in bytes and is checked before
// any decoding.
func Normalize(fileName string, payload []byte, maxSize int) ([]domain.Record, error) {
	if maxSize > 0 && len(payload) > maxSize {
		return nil, domain.NewValidationFailure(domain.ValidationError{
			Message: fmt.Sprintf("file size exceeds limit of %d bytes", maxSize),
		})
	}

	rows, err := parseTable(fileName, payload)
	if err != nil {
		return nil, err
	}

	return normalizeRows(rows)
}

// NormalizeType normalizes an equipment type value: trimmed, lowercase,
// spaces replaced with underscores ("Heat Exchanger" -> "heat_exchanger").
func NormalizeType(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), " ", "_")
}

// NormalizeHeader normalizes a column header for mapping lookup.
func NormalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func parseTable(fileName string, payload []byte) ([][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv", "":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return nil, domain.NewValidationFailure(domain.ValidationError{
			Message: fmt.Sprintf("%v: %s", ErrUnsupportedFormat, ext),
		})
	}
}

func parseCSV(payload []byte) ([][]string, error) {
	if !utf8.Valid(payload) {
		return nil, domain.NewValidationFailure(domain.ValidationError{
			Message: "file must be UTF-8 encoded",
		})
	}

	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, domain.NewValidationFailure(domain.ValidationError{
			Message: fmt.Sprintf("csv parsing error: %v", err),
		})
	}
	return rows, nil
}

func parseExcel(payload []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, domain.NewValidationFailure(domain.ValidationError{
			Message: fmt.Sprintf("failed to open xlsx: %v", err),
		})
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.NewValidationFailure(domain.ValidationError{
			Message: "excel file has no sheets",
		})
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, domain.NewValidationFailure(domain.ValidationError{
			Message: fmt.Sprintf("failed to read rows from xlsx: %v", err),
		})
	}
	return rows, nil
}

func normalizeRows(rows [][]string) ([]domain.Record, error) {
	if len(rows) == 0 {
		return nil, domain.NewValidationFailure(domain.ValidationError{
			Message: "file is empty or has no headers",
		})
	}

	columns, err := resolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var records []domain.Record
	var validationErrors []domain.ValidationError

	for idx, row := range rows[1:] {
		rowNumber := idx + 2 // header is row 1

		record := make(domain.Record, len(domain.CanonicalFields))
		var rowErrors []domain.ValidationError

		for _, col := range columns {
			var value string
			if col.index < len(row) {
				value = strings.TrimSpace(row[col.index])
			}

			if value == "" {
				rowErrors = append(rowErrors, domain.ValidationError{
					Row:     rowNumber,
					Column:  col.label,
					Message: "field cannot be empty",
				})
				continue
			}

			if col.internal == domain.FieldType {
				record[col.internal] = NormalizeType(value)
				continue
			}

			if numericFields[col.internal] {
				parsed, parseErr := strconv.ParseFloat(value, 64)
				if parseErr != nil {
					rowErrors = append(rowErrors, domain.ValidationError{
						Row:     rowNumber,
						Column:  col.label,
						Message: "expected numeric value",
					})
					continue
				}
				record[col.internal] = parsed
				continue
			}

			record[col.internal] = value
		}

		if len(rowErrors) > 0 {
			validationErrors = append(validationErrors, rowErrors...)
			continue
		}
		if len(record) > 0 {
			records = append(records, record)
		}
	}

	if len(records) == 0 && len(validationErrors) == 0 {
		return nil, domain.NewValidationFailure(domain.ValidationError{
			Message: "no valid data rows",
		})
	}
	if len(validationErrors) > 0 {
		return nil, domain.NewValidationFailure(validationErrors...)
	}

	return records, nil
}

// resolveColumns binds the header row to canonical fields. Missing
// fields abort normalization with a single aggregated error naming
// every absent column; no row parsing happens in that case.
func resolveColumns(header []string) ([]resolvedColumn, error) {
	matched := make(map[string]bool, len(domain.CanonicalFields))
	columns := make([]resolvedColumn, 0, len(domain.CanonicalFields))

	for idx, raw := range header {
		internal, ok := headerMapping[NormalizeHeader(raw)]
		if !ok || matched[internal] {
			continue
		}
		matched[internal] = true
		columns = append(columns, resolvedColumn{
			index:    idx,
			label:    strings.TrimSpace(raw),
			internal: internal,
		})
	}

	var missing []string
	for _, field := range domain.CanonicalFields {
		if !matched[field] {
			missing = append(missing, readableFieldName(field))
		}
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationFailure(domain.ValidationError{
			Message: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")),
		})
	}

	return columns, nil
}

// readableFieldName converts an internal field name back to a human
// readable label ("equipment_name" -> "Equipment Name").
func readableFieldName(field string) string {
	words := strings.Split(field, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
