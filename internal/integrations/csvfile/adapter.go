// Package csvfile reads orders exported as CSV by a till or spreadsheet.
//
// Each row is "orderId,items" where items are separated by ';' or spaces;
// an optional header row starting with a non-numeric id is skipped.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"cafesched/internal/model"
)

type Adapter struct {
	Path string
}

func (a Adapter) Name() string { return "csv-file" }

func (a Adapter) FetchOrders(ctx context.Context) ([]model.Order, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Name(), err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads orders from r in row order.
func Parse(r io.Reader) ([]model.Order, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	orders := []model.Order{}
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv orders: %w", err)
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("csv orders: line %d: bad order id %q", line, rec[0])
		}
		items := []model.ItemType{}
		for _, field := range rec[1:] {
			for _, tag := range strings.FieldsFunc(field, func(r rune) bool { return r == ';' || r == ' ' }) {
				items = append(items, model.ItemType(strings.ToLower(tag)))
			}
		}
		orders = append(orders, model.Order{OrderID: id, Items: items})
	}
	return orders, nil
}
