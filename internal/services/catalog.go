package services

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed metric_catalog.yaml
var metricCatalogYAML []byte

type MetricDescriptor struct {
	Key  string `yaml:"key" json:"key"`
	Type string `yaml:"type" json:"type"`
}

type metricCatalogDoc struct {
	Metrics []MetricDescriptor `yaml:"metrics"`
}

// CatalogService serves the fixed list of metrics the widget can chart.
type CatalogService interface {
	Metrics() []MetricDescriptor
}

type catalogService struct {
	metrics []MetricDescriptor
}

func NewCatalogService() (CatalogService, error) {
	return newCatalogService(metricCatalogYAML)
}

func newCatalogService(raw []byte) (*catalogService, error) {
	var doc metricCatalogDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse metric catalog: %w", err)
	}
	if len(doc.Metrics) == 0 {
		return nil, fmt.Errorf("metric catalog is empty")
	}
	for i, m := range doc.Metrics {
		if m.Key == "" || m.Type == "" {
			return nil, fmt.Errorf("metric catalog entry %d: key and type required", i)
		}
	}
	return &catalogService{metrics: doc.Metrics}, nil
}

func (s *catalogService) Metrics() []MetricDescriptor {
	out := make([]MetricDescriptor, len(s.metrics))
	copy(out, s.metrics)
	return out
}
