package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kdudkov/tilesmanager/pkg/mapper"
	"github.com/kdudkov/tilesmanager/pkg/model"
)

type Config struct {
	Addr    string  `yaml:"addr"`
	Tms     bool    `yaml:"tms"`
	MaxZoom int     `yaml:"maxZoom"`
	Debug   bool    `yaml:"debug"`
	Border  *Border `yaml:"border"`
}

// Border limits served tiles to the rectangle between two z/x/y tiles.
type Border struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

func Default() *Config {
	return &Config{
		Addr:    ":8888",
		MaxZoom: 20,
	}
}

// Load reads yaml config over the defaults. Missing file is not an error.
func Load(path string) (*Config, error) {
	c := Default()

	d, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}

		return nil, err
	}

	if err := yaml.Unmarshal(d, c); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) Validate() error {
	if err := mapper.ValidZoom(c.MaxZoom); err != nil {
		return fmt.Errorf("maxZoom %d: %w", c.MaxZoom, err)
	}

	if c.Addr == "" {
		return fmt.Errorf("empty addr")
	}

	if _, _, err := c.BorderTiles(); err != nil {
		return err
	}

	return nil
}

// BorderTiles returns nil tiles when no border is set.
func (c *Config) BorderTiles() (*model.Tile, *model.Tile, error) {
	if c.Border == nil {
		return nil, nil, nil
	}

	t1, err := model.ParseTile(c.Border.From)
	if err != nil {
		return nil, nil, fmt.Errorf("border from: %w", err)
	}

	t2, err := model.ParseTile(c.Border.To)
	if err != nil {
		return nil, nil, fmt.Errorf("border to: %w", err)
	}

	return t1, t2, nil
}

func (c *Config) Manager() *mapper.TilesManager {
	return mapper.NewTilesManager(mapper.WithTms(c.Tms))
}
