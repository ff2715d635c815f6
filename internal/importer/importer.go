// Package importer loads catalog CSV files into the product store.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV files and inserts or updates products by SKU.
//
// Expected columns: id (optional), sku, name, description, price (whole đồng),
// stock, category, image. A row with an empty sku and an image is a
// continuation row and adds that image to the product above it.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
}

func NewCSVImporter(r io.Reader, repo ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
	}
}

type csvRow struct {
	line      int
	ID        string
	SKU       string
	Name      string
	Desc      string
	Price     string
	Stock     string
	Category  string
	ImageURLs []string
}

// Run parses CSV rows and upserts one product per SKU row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["sku"]; !ok {
		return 0, errors.New("read headers: missing sku column")
	}

	var (
		current  *csvRow
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		row.line = line

		if row.SKU != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		if current != nil && len(row.ImageURLs) > 0 {
			current.ImageURLs = append(current.ImageURLs, row.ImageURLs...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Name == "" || row.Price == "" {
		return fmt.Errorf("row %d: missing name or price for sku %q", row.line, row.SKU)
	}
	if row.ID != "" && len(row.ID) != 36 {
		return fmt.Errorf("row %d: invalid id for sku %q: %s", row.line, row.SKU, row.ID)
	}
	price, err := parseAmount(row.Price)
	if err != nil || price < 0 {
		return fmt.Errorf("row %d: invalid price %q for sku %q", row.line, row.Price, row.SKU)
	}
	stock := 0
	if row.Stock != "" {
		stock, err = strconv.Atoi(row.Stock)
		if err != nil || stock < 0 {
			return fmt.Errorf("row %d: invalid stock %q for sku %q", row.line, row.Stock, row.SKU)
		}
	}

	attrs := map[string]interface{}{}
	if len(row.ImageURLs) > 0 {
		attrs["images"] = row.ImageURLs
	}

	p := domain.Product{
		ID:          row.ID,
		SKU:         row.SKU,
		Name:        row.Name,
		Description: row.Desc,
		Price:       price,
		Stock:       stock,
		Category:    row.Category,
		Attributes:  attrs,
	}

	if _, err := i.productRepo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.SKU, err)
	}
	return nil
}

// parseAmount accepts plain digits as well as Vietnamese grouping ("200.000").
func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "₫"))
	s = strings.NewReplacer(".", "", " ", "").Replace(s)
	return strconv.ParseInt(s, 10, 64)
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	sku := pick(record, index, "sku")
	imageURL := pick(record, index, "image")

	if sku == "" && imageURL == "" {
		return nil
	}

	row := &csvRow{
		ID:       pick(record, index, "id"),
		SKU:      sku,
		Name:     pick(record, index, "name"),
		Desc:     pick(record, index, "description"),
		Price:    pick(record, index, "price"),
		Stock:    pick(record, index, "stock"),
		Category: pick(record, index, "category"),
	}
	if imageURL != "" {
		row.ImageURLs = []string{imageURL}
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
