package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rpattn/engrest/internal/domain"
	"github.com/rpattn/engrest/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// Service ingests tabular data (CSV or XLSX) into an existing entity schema.
// Columns are matched to schema fields by sanitized header name; rows that
// fail coercion or validation are skipped and reported, never persisted.
type Service struct {
	schemas  repository.EntitySchemaRepository
	entities repository.EntityRepository
}

func NewService(schemas repository.EntitySchemaRepository, entities repository.EntityRepository) *Service {
	return &Service{schemas: schemas, entities: entities}
}

// Request describes the ingestion input.
type Request struct {
	OrganizationID uuid.UUID
	SchemaName     string
	FileName       string
	Data           io.Reader
}

// RowError reports why one data row was rejected.
type RowError struct {
	RowNumber int    `json:"rowNumber"`
	Message   string `json:"message"`
}

// Summary returns ingestion level metrics.
type Summary struct {
	TotalRows   int        `json:"totalRows"`
	ValidRows   int        `json:"validRows"`
	InvalidRows int        `json:"invalidRows"`
	// TotalEntities counts every stored entity of the schema's type after
	// the upload, not just the rows it added.
	TotalEntities int64      `json:"totalEntities"`
	RowErrors     []RowError `json:"rowErrors,omitempty"`
}

type tableData struct {
	headers []string
	rows    [][]string
}

// Ingest reads the uploaded file and persists one entity per valid row.
func (s *Service) Ingest(ctx context.Context, req Request) (Summary, error) {
	var summary Summary

	if req.OrganizationID == uuid.Nil {
		return summary, errors.New("organization id is required")
	}
	if strings.TrimSpace(req.SchemaName) == "" {
		return summary, errors.New("schema name is required")
	}
	if req.Data == nil {
		return summary, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return summary, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return summary, errors.New("file is empty")
	}

	table, err := parseTable(req.FileName, payload)
	if err != nil {
		return summary, err
	}
	if len(table.headers) == 0 {
		return summary, errors.New("no header row detected")
	}

	schema, err := s.schemas.GetByName(ctx, req.OrganizationID, req.SchemaName)
	if err != nil {
		return summary, fmt.Errorf("failed to load schema %q: %w", req.SchemaName, err)
	}

	summary.TotalRows = len(table.rows)
	usedPaths := make(map[string]int)

	for rowIdx, row := range table.rows {
		rowNumber := rowIdx + 2 // 1-based, after the header row
		properties, rowErr := s.coerceRow(schema, table.headers, row)
		if rowErr == nil {
			rowErr = schema.ValidateProperties(properties)
		}
		if rowErr != nil {
			summary.InvalidRows++
			summary.RowErrors = append(summary.RowErrors, RowError{RowNumber: rowNumber, Message: rowErr.Error()})
			continue
		}

		path := generatePath(schema.Name, row, rowIdx, usedPaths)
		entity := domain.NewEntity(req.OrganizationID, schema.ID, schema.Name, path, properties)
		if _, err := s.entities.Create(ctx, entity); err != nil {
			summary.InvalidRows++
			summary.RowErrors = append(summary.RowErrors, RowError{
				RowNumber: rowNumber,
				Message:   fmt.Sprintf("failed to insert entity: %v", err),
			})
			continue
		}
		summary.ValidRows++
	}

	if total, err := s.entities.CountByType(ctx, req.OrganizationID, schema.Name); err == nil {
		summary.TotalEntities = total
	}

	return summary, nil
}

func (s *Service) coerceRow(schema domain.EntitySchema, headers []string, row []string) (map[string]any, error) {
	properties := make(map[string]any)
	for colIdx, header := range headers {
		if colIdx >= len(row) {
			continue
		}
		field, ok := schema.FieldByName(header)
		if !ok {
			// Column not part of the schema; skip silently so extra
			// spreadsheet columns do not fail the whole upload.
			continue
		}
		coerced, err := schema.CoerceValue(field, row[colIdx])
		if err != nil {
			return nil, err
		}
		if coerced != nil {
			properties[field.Name] = coerced
		}
	}
	return properties, nil
}

func parseTable(fileName string, payload []byte) (tableData, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}
	return normalizeTable(records)
}

func parseExcel(payload []byte) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return normalizeTable(rows)
}

func normalizeTable(records [][]string) (tableData, error) {
	if len(records) == 0 {
		return tableData{}, errors.New("no rows found in file")
	}

	var headerRow []string
	var dataRows [][]string
	for _, row := range records {
		if isEmptyRow(row) {
			continue
		}
		if headerRow == nil {
			headerRow = row
			continue
		}
		dataRows = append(dataRows, row)
	}
	if headerRow == nil {
		return tableData{}, errors.New("header row could not be detected")
	}

	headers := sanitizeHeaders(headerRow)
	for i := range dataRows {
		dataRows[i] = padRow(dataRows[i], len(headers))
	}
	return tableData{headers: headers, rows: dataRows}, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func sanitizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int)

	for idx, value := range raw {
		name := strings.TrimSpace(value)
		name = strings.ToLower(name)
		name = strings.ReplaceAll(name, " ", "_")
		name = strings.ReplaceAll(name, ".", "_")
		name = strings.ReplaceAll(name, "-", "_")
		name = strings.Trim(name, "_")
		if name == "" {
			name = fmt.Sprintf("column_%d", idx+1)
		}

		base := name
		count := seen[base]
		if count > 0 {
			name = fmt.Sprintf("%s_%d", base, count+1)
		}
		seen[base] = count + 1

		headers[idx] = name
	}
	return headers
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}

func slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	var b strings.Builder
	lastUnderscore := true
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// generatePath derives a hierarchy path for the new entity from the first
// non-empty cell, deduplicated across the upload.
func generatePath(schemaName string, row []string, index int, used map[string]int) string {
	base := slugify(schemaName)
	if base == "" {
		base = "entity"
	}

	var candidate string
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			candidate = cell
			break
		}
	}
	child := slugify(candidate)
	if child == "" {
		child = fmt.Sprintf("row_%d", index+1)
	}

	path := fmt.Sprintf("%s.%s", base, child)
	if count, ok := used[path]; ok {
		count++
		used[path] = count
		path = fmt.Sprintf("%s_%d", path, count)
	} else {
		used[path] = 1
	}
	return path
}
