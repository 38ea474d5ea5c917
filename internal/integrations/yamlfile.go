package integrations

import (
	"context"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"cafesched/internal/model"
)

// YAMLFile reads either a bare list of orders or a document with an
// "orders" key:
//
//	orders:
//	  - id: 34
//	    items: [sandwich, drink]
type YAMLFile struct {
	Path string
}

func (y YAMLFile) Name() string { return "yaml-file" }

func (y YAMLFile) FetchOrders(ctx context.Context) ([]model.Order, error) {
	b, err := os.ReadFile(y.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", y.Name(), err)
	}
	return ParseYAML(b)
}

func ParseYAML(b []byte) ([]model.Order, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil, fmt.Errorf("yaml orders: %w", err)
	}
	if len(root.Content) == 0 {
		return []model.Order{}, nil
	}
	doc := root.Content[0]
	var orders []model.Order
	switch doc.Kind {
	case yaml.SequenceNode:
		err := doc.Decode(&orders)
		if err != nil {
			return nil, fmt.Errorf("yaml orders: %w", err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Orders []model.Order `yaml:"orders"`
		}
		if err := doc.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("yaml orders: %w", err)
		}
		orders = wrapped.Orders
	default:
		return nil, fmt.Errorf("yaml orders: expected a list or an orders: key at line %d", doc.Line)
	}
	for i := range orders {
		if orders[i].Items == nil {
			orders[i].Items = []model.ItemType{}
		}
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}
