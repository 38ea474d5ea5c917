package integrations

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"cafesched/internal/model"
)

func TestParseYAML(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []model.Order
	}{
		{"list", "- id: 34\n  items: [sandwich]\n- id: 35\n", []model.Order{
			{OrderID: 34, Items: []model.ItemType{model.Sandwich}},
			{OrderID: 35, Items: []model.ItemType{}},
		}},
		{"wrapped", "orders:\n  - id: 7\n    items: [drink, sandwich]\n", []model.Order{
			{OrderID: 7, Items: []model.ItemType{model.Drink, model.Sandwich}},
		}},
		{"empty", "", []model.Order{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseYAML([]byte(tc.in))
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
	if _, err := ParseYAML([]byte("just a string")); err == nil {
		t.Fatal("scalar document should fail")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "orders.yaml")
	csv := filepath.Join(dir, "orders.csv")
	_ = os.WriteFile(yml, []byte("- id: 1\n  items: [sandwich]\n"), 0o644)
	_ = os.WriteFile(csv, []byte("2,sandwich\n"), 0o644)

	for path, wantID := range map[string]int{yml: 1, csv: 2} {
		src, err := Open(path)
		if err != nil {
			t.Fatal(err)
		}
		orders, err := src.FetchOrders(context.Background())
		if err != nil || len(orders) != 1 || orders[0].OrderID != wantID {
			t.Fatalf("%s (%s): %+v %v", path, src.Name(), orders, err)
		}
	}
	if _, err := Open(filepath.Join(dir, "orders.txt")); err == nil {
		t.Fatal("unsupported extension should fail")
	}
}
