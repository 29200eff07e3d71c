package bench

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/benz9527/xavl/lib/infra"
)

// Config of the finger insert experiment. Sizes are Base * 2^i for i in
// Exponents.
type Config struct {
	Base      int         `yaml:"base"`
	Exponents []int       `yaml:"exponents"`
	Kinds     []InputKind `yaml:"kinds"`
	Trials    int         `yaml:"trials"`
	Seed      uint64      `yaml:"seed"`
	Workers   int         `yaml:"workers"`
	Verify    bool        `yaml:"verify"`
	Exporter  string      `yaml:"exporter"`
	Database  string      `yaml:"database"`
	CSVDir    string      `yaml:"csv_dir"`
	CSVFile   string      `yaml:"csv_file"`
}

func DefaultConfig() *Config {
	return &Config{
		Base:      111,
		Exponents: []int{1, 2, 3, 4, 5},
		Kinds:     []InputKind{SortedInput, ReversedInput, RandomInput, SwappedInput},
		Trials:    20,
		Seed:      20240501,
		Workers:   8,
		Exporter:  "none",
		Database:  "file:xavl.db",
		CSVFile:   "xavl-results.csv",
	}
}

// LoadConfig overlays the YAML file on the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if len(path) == 0 {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[bench] read config")
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[bench] parse config")
	}
	return cfg, cfg.Validate()
}

func (cfg *Config) Validate() error {
	var err error
	if cfg.Base <= 0 {
		err = multierr.Append(err, fmt.Errorf("base must be positive, got %d", cfg.Base))
	}
	if len(cfg.Exponents) == 0 {
		err = multierr.Append(err, fmt.Errorf("exponents are empty"))
	}
	for _, exp := range cfg.Exponents {
		if exp < 0 || exp > 20 {
			err = multierr.Append(err, fmt.Errorf("exponent %d out of [0, 20]", exp))
		}
	}
	if len(cfg.Kinds) == 0 {
		err = multierr.Append(err, fmt.Errorf("kinds are empty"))
	}
	for _, kind := range cfg.Kinds {
		if !kind.valid() {
			err = multierr.Append(err, fmt.Errorf("unknown input kind %q", kind))
		}
	}
	if cfg.Trials <= 0 {
		err = multierr.Append(err, fmt.Errorf("trials must be positive, got %d", cfg.Trials))
	}
	if cfg.Workers <= 0 {
		err = multierr.Append(err, fmt.Errorf("workers must be positive, got %d", cfg.Workers))
	}
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "[bench] invalid config")
	}
	return nil
}

func (cfg *Config) Sizes() []int {
	sizes := make([]int, 0, len(cfg.Exponents))
	for _, exp := range cfg.Exponents {
		sizes = append(sizes, cfg.Base<<exp)
	}
	return sizes
}
