package market

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rickgao/predictors-stream/internal/model"
)

// Catalog is the YAML layout of a registry seed file.
type Catalog struct {
	Series  []model.Series `yaml:"series"`
	Events  []model.Event  `yaml:"events"`
	Markets []model.Market `yaml:"markets"`
}

// LoadCatalog reads a catalog file and registers its entries, parents first.
func (r *Registry) LoadCatalog(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("parse catalog yaml: %w", err)
	}

	return r.Register(c)
}

// Register adds every entry of c, parents first. It stops at the first error.
func (r *Registry) Register(c Catalog) error {
	for _, s := range c.Series {
		if err := r.AddSeries(s); err != nil {
			return err
		}
	}
	for _, e := range c.Events {
		if err := r.AddEvent(e); err != nil {
			return err
		}
	}
	for _, m := range c.Markets {
		if err := r.AddMarket(m); err != nil {
			return err
		}
	}

	series, events, markets := r.Counts()
	r.logger.Info("catalog registered",
		"series", series,
		"events", events,
		"markets", markets,
	)
	return nil
}
