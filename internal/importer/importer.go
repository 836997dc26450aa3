// Package importer reads product files (JSON, CSV and XLSX) into product inputs.
package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/kaimono/internal/models"
)

// ErrUnsupportedFormat is returned for file extensions the importer does not read.
var ErrUnsupportedFormat = errors.New("unsupported product file format")

// Extensions lists the file extensions ImportFile understands.
var Extensions = []string{".json", ".csv", ".xlsx"}

// Supported reports whether path has an importable extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// ImportFile parses the product file at path, choosing the format by extension.
func ImportFile(path string) ([]*models.ProductInput, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	var products []*models.ProductInput
	switch ext {
	case ".json":
		products, err = ParseJSON(content)
	case ".csv":
		products, err = ParseCSV(bytes.NewReader(content))
	case ".xlsx":
		products, err = ParseXLSX(bytes.NewReader(content))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return products, nil
}

// ParseJSON accepts a product array or an object with a "products" array.
func ParseJSON(content []byte) ([]*models.ProductInput, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var products []*models.ProductInput
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return nil, err
		}
		return products, nil
	}
	var wrapper struct {
		Products []*models.ProductInput `json:"products"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Products, nil
}

// ParseCSV reads a header row followed by one product per row.
func ParseCSV(r io.Reader) ([]*models.ProductInput, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	return fromRows(rows)
}

// ParseXLSX reads the first sheet of a workbook: a header row followed by one product per row.
func ParseXLSX(r io.Reader) ([]*models.ProductInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}

// columnAliases maps header names to product fields.
var columnAliases = map[string]string{
	"id":          "id",
	"product_id":  "id",
	"sku":         "id",
	"name":        "name",
	"title":       "name",
	"description": "description",
	"category":    "category",
	"price":       "price",
	"owner_id":    "owner_id",
	"owner":       "owner_id",
	"shop_id":     "owner_id",
	"image_url":   "image_url",
	"image":       "image_url",
	"in_stock":    "in_stock",
	"stock":       "in_stock",
}

func fromRows(rows [][]string) ([]*models.ProductInput, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	columns := make([]string, len(rows[0]))
	hasName := false
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		columns[i] = columnAliases[key]
		if columns[i] == "name" {
			hasName = true
		}
	}
	if !hasName {
		return nil, fmt.Errorf("header row has no name column")
	}

	products := make([]*models.ProductInput, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		p := &models.ProductInput{}
		for i, cell := range row {
			if i >= len(columns) {
				break
			}
			if err := setField(p, columns[i], strings.TrimSpace(cell)); err != nil {
				return nil, fmt.Errorf("row %d: %w", n+2, err)
			}
		}
		products = append(products, p)
	}
	return products, nil
}

func setField(p *models.ProductInput, field, value string) error {
	switch field {
	case "id":
		p.ID = value
	case "name":
		p.Name = value
	case "description":
		p.Description = value
	case "category":
		p.Category = value
	case "owner_id":
		p.OwnerID = value
	case "image_url":
		p.ImageURL = value
	case "price":
		if value == "" {
			return nil
		}
		price, err := strconv.ParseFloat(strings.TrimPrefix(value, "$"), 64)
		if err != nil {
			return fmt.Errorf("invalid price %q", value)
		}
		p.Price = price
	case "in_stock":
		if value == "" {
			return nil
		}
		v, err := parseBool(value)
		if err != nil {
			return err
		}
		p.InStock = &v
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("invalid in_stock value %q", s)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
