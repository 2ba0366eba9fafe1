// Package features derives a user's behavioral feature labels from their
// ordered trip list. The label taxonomy is fixed by an embedded template;
// every template label is present in every output, holding either a computed
// value or the rule's fallback sentinel.
package features

import (
	_ "embed"
	"encoding/json"
)

//go:embed template.json
var templateJSON []byte

// LabelValue is one classified label.
type LabelValue struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Category groups related labels.
type Category struct {
	Category string       `json:"category"`
	Labels   []LabelValue `json:"labels"`
}

// FeatureLabelMap is the full two-level feature table in template order.
type FeatureLabelMap []Category

type templateCategory struct {
	Category string   `json:"category"`
	Labels   []string `json:"labels"`
}

// NewLabelMap builds an empty label map from the embedded taxonomy template.
func NewLabelMap() FeatureLabelMap {
	var tmpl []templateCategory
	if err := json.Unmarshal(templateJSON, &tmpl); err != nil {
		// The template is compiled in; failing to parse it is a build
		// defect, not a runtime condition.
		panic("features: invalid embedded template: " + err.Error())
	}
	m := make(FeatureLabelMap, 0, len(tmpl))
	for _, cat := range tmpl {
		labels := make([]LabelValue, 0, len(cat.Labels))
		for _, name := range cat.Labels {
			labels = append(labels, LabelValue{Label: name})
		}
		m = append(m, Category{Category: cat.Category, Labels: labels})
	}
	return m
}

// Get returns the value of a label.
func (m FeatureLabelMap) Get(category, label string) (string, bool) {
	for _, cat := range m {
		if cat.Category != category {
			continue
		}
		for _, lv := range cat.Labels {
			if lv.Label == label {
				return lv.Value, true
			}
		}
	}
	return "", false
}

func (m FeatureLabelMap) set(category, label, value string) {
	for i, cat := range m {
		if cat.Category != category {
			continue
		}
		for j, lv := range cat.Labels {
			if lv.Label == label {
				m[i].Labels[j].Value = value
				return
			}
		}
	}
}
