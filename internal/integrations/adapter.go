// Package integrations loads orders from external sources for batch runs.
package integrations

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"cafesched/internal/integrations/csvfile"
	"cafesched/internal/model"
)

// OrderSource is a batch feed of orders, returned in submission order.
type OrderSource interface {
	Name() string
	FetchOrders(ctx context.Context) ([]model.Order, error)
}

// Open picks a source by file extension: .yaml/.yml or .csv.
func Open(path string) (OrderSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLFile{Path: path}, nil
	case ".csv":
		return csvfile.Adapter{Path: path}, nil
	default:
		return nil, fmt.Errorf("integrations: unsupported order file %q (want .yaml, .yml or .csv)", path)
	}
}
