// Package menu holds the set of item tags the café recognizes.
package menu

import (
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"cafesched/internal/model"
)

// Menu splits recognized tags into sandwiches (which need making) and extras.
// Tags outside both lists are still accepted on orders; they just produce no task.
type Menu struct {
	Sandwiches []model.ItemType `yaml:"sandwiches" json:"sandwiches"`
	Extras     []model.ItemType `yaml:"extras" json:"extras"`
}

// Default is the stock menu: one sandwich tag, snacks and drinks as extras.
func Default() Menu {
	return Menu{
		Sandwiches: []model.ItemType{model.Sandwich},
		Extras:     []model.ItemType{model.Snack, model.Drink},
	}
}

func (m Menu) IsSandwich(t model.ItemType) bool {
	for _, s := range m.Sandwiches {
		if s == t {
			return true
		}
	}
	return false
}

func (m Menu) Recognized(t model.ItemType) bool {
	if m.IsSandwich(t) {
		return true
	}
	for _, e := range m.Extras {
		if e == t {
			return true
		}
	}
	return false
}

// Tags returns every recognized tag, sandwiches first.
func (m Menu) Tags() []model.ItemType {
	out := make([]model.ItemType, 0, len(m.Sandwiches)+len(m.Extras))
	out = append(out, m.Sandwiches...)
	return append(out, m.Extras...)
}

// Validate rejects empty tags and a menu without any sandwich.
func (m Menu) Validate() error {
	if len(m.Sandwiches) == 0 {
		return fmt.Errorf("menu: at least one sandwich tag required")
	}
	seen := map[model.ItemType]struct{}{}
	for _, t := range m.Tags() {
		if strings.TrimSpace(string(t)) == "" {
			return fmt.Errorf("menu: empty item tag")
		}
		if _, dup := seen[t]; dup {
			return fmt.Errorf("menu: duplicate item tag %q", t)
		}
		seen[t] = struct{}{}
	}
	return nil
}

// Parse decodes a YAML menu document.
func Parse(data []byte) (Menu, error) {
	var m Menu
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Menu{}, fmt.Errorf("menu: parse: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Menu{}, err
	}
	return m, nil
}

// LoadFile reads a standalone menu file.
func LoadFile(path string) (Menu, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Menu{}, fmt.Errorf("menu: %w", err)
	}
	return Parse(b)
}
