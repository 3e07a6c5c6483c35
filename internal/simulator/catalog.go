package simulator

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog descreve as partidas simuladas e os parâmetros da plataforma mock
type Catalog struct {
	MaxStake       string         `yaml:"maxStake"`
	InitialBalance string         `yaml:"initialBalance"`
	BoostTiers     []CatalogTier  `yaml:"boostTiers"`
	Matches        []CatalogMatch `yaml:"matches"`
}

type CatalogTier struct {
	MinSelections int    `yaml:"minSelections"`
	Percentage    string `yaml:"percentage"`
}

type CatalogMatch struct {
	ID          string          `yaml:"id"`
	Home        string          `yaml:"home"`
	Away        string          `yaml:"away"`
	Sport       string          `yaml:"sport"`
	SportCode   string          `yaml:"sportCode"`
	Competition string          `yaml:"competition"`
	Venue       string          `yaml:"venue"`
	StartsIn    time.Duration   `yaml:"startsIn"`
	Markets     []CatalogMarket `yaml:"markets"`
}

type CatalogMarket struct {
	ID       string           `yaml:"id"`
	Name     string           `yaml:"name"`
	Outcomes []CatalogOutcome `yaml:"outcomes"`
}

type CatalogOutcome struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Odd       string `yaml:"odd"`
	Suspended bool   `yaml:"suspended"`
}

// LoadCatalog lê o catálogo do arquivo; path vazio usa o catálogo embutido
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodifica e valida o YAML do catálogo
func ParseCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	sort.Slice(c.BoostTiers, func(i, j int) bool {
		return c.BoostTiers[i].MinSelections < c.BoostTiers[j].MinSelections
	})
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Matches) == 0 {
		return errors.New("catalog has no matches")
	}
	for _, s := range []string{c.MaxStake, c.InitialBalance} {
		if s == "" {
			continue
		}
		if _, err := decimal.NewFromString(s); err != nil {
			return fmt.Errorf("catalog amount %q: %w", s, err)
		}
	}
	for _, t := range c.BoostTiers {
		if t.MinSelections < 1 {
			return fmt.Errorf("boost tier needs minSelections >= 1, got %d", t.MinSelections)
		}
		if _, err := decimal.NewFromString(t.Percentage); err != nil {
			return fmt.Errorf("boost tier percentage %q: %w", t.Percentage, err)
		}
	}

	seen := make(map[string]bool)
	for _, m := range c.Matches {
		if m.ID == "" {
			return errors.New("catalog match without id")
		}
		for _, mk := range m.Markets {
			for _, o := range mk.Outcomes {
				if seen[o.ID] {
					return fmt.Errorf("duplicate outcome %s", o.ID)
				}
				seen[o.ID] = true
				odd, err := decimal.NewFromString(o.Odd)
				if err != nil {
					return fmt.Errorf("outcome %s odd %q: %w", o.ID, o.Odd, err)
				}
				if odd.LessThanOrEqual(decimal.NewFromInt(1)) {
					return fmt.Errorf("outcome %s odd must be above 1, got %s", o.ID, o.Odd)
				}
			}
		}
	}
	return nil
}

// maxStake retorna o limite de stake; zero significa sem limite
func (c *Catalog) maxStake() decimal.Decimal {
	if c.MaxStake == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(c.MaxStake)
}

// initialBalanceCents é o saldo de cada carteira nova, em centavos
func (c *Catalog) initialBalanceCents() int64 {
	if c.InitialBalance == "" {
		return 0
	}
	return decimal.RequireFromString(c.InitialBalance).Shift(2).IntPart()
}
