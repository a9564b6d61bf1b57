package model

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Price is either a numeric amount or a descriptive text such as "Call for quote".
type Price struct {
	Amount *float64 `json:"amount,omitempty"`
	Text   string   `json:"text,omitempty"`
}

func AmountPrice(v float64) Price { return Price{Amount: &v} }

func (p Price) IsAmount() bool { return p.Amount != nil }

func (p Price) String() string {
	if p.Amount != nil {
		return strconv.FormatFloat(*p.Amount, 'f', -1, 64)
	}
	return p.Text
}

func (p *Price) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("price at line %d: expected a scalar", node.Line)
	}
	switch node.Tag {
	case "!!int", "!!float":
		v, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("price at line %d: %w", node.Line, err)
		}
		*p = AmountPrice(v)
	default:
		*p = Price{Text: node.Value}
	}
	return nil
}

// CatalogEntry prices one model or a range of models of the same generation,
// e.g. "13 - 13 Pro Max" or "13 Pro / 13 Pro Max".
type CatalogEntry struct {
	Model string `yaml:"model" json:"model"`
	Price Price  `yaml:"price" json:"price"`
}

type ServiceCategory struct {
	Name    string         `yaml:"name" json:"name"`
	Entries []CatalogEntry `yaml:"entries" json:"entries"`
}
