package e2e

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/kaimono/internal/models"
)

// FeedExtensions is the list of catalog feed formats used in file-based tests.
var FeedExtensions = []string{".json", ".csv", ".xlsx"}

var feedHeader = []string{"id", "name", "description", "category", "price", "owner_id"}

// WriteFeed encodes products as a catalog feed of the given extension.
func WriteFeed(ext string, products []E2EProduct) ([]byte, error) {
	switch ext {
	case ".json":
		return feedJSON(products)
	case ".csv":
		return feedCSV(products)
	case ".xlsx":
		return feedXLSX(products)
	default:
		return nil, fmt.Errorf("unsupported feed extension %q", ext)
	}
}

func feedJSON(products []E2EProduct) ([]byte, error) {
	inputs := make([]*models.ProductInput, len(products))
	for i, p := range products {
		inputs[i] = p.Input()
	}
	return json.MarshalIndent(map[string]any{"products": inputs}, "", "  ")
}

func feedRow(p E2EProduct) []string {
	return []string{p.ID, p.Name, p.Description, p.Category, strconv.FormatFloat(p.Price, 'f', 2, 64), p.OwnerID}
}

func feedCSV(products []E2EProduct) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(feedHeader); err != nil {
		return nil, err
	}
	for _, p := range products {
		if err := w.Write(feedRow(p)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func feedXLSX(products []E2EProduct) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := make([][]string, 0, len(products)+1)
	rows = append(rows, feedHeader)
	for _, p := range products {
		rows = append(rows, feedRow(p))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
