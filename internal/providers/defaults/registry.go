// Package defaults assembles the standard provider registry. Providers
// register in priority order: the pipeline falls through to the next one
// only when the previous yields nothing.
package defaults

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ynrrishabh/anime/internal/providers"
	"github.com/ynrrishabh/anime/internal/providers/anilist"
	"github.com/ynrrishabh/anime/internal/providers/consumet"
	"github.com/ynrrishabh/anime/internal/providers/jikan"
	"github.com/ynrrishabh/anime/internal/providers/toonworld"
	"github.com/ynrrishabh/anime/internal/providers/zoro"
)

// Endpoints overrides provider base URLs. Every field is optional; empty
// values fall back to each provider's built-in default.
type Endpoints struct {
	Gogoanime struct {
		Endpoints []string `yaml:"endpoints"`
	} `yaml:"gogoanime"`
	Zoro struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"zoro"`
	Toonworld struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"toonworld"`
	AniList struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"anilist"`
	Jikan struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"jikan"`
}

// LoadEndpoints reads the endpoint-variant config file. A missing file
// is not an error: every provider has working defaults.
func LoadEndpoints(path string) (Endpoints, error) {
	var cfg Endpoints

	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read providers config: %w", err)
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parse providers config: %w", err)
	}

	return cfg, nil
}

func NewRegistry(configPath string, client *http.Client) (*providers.Registry, error) {
	endpoints, loadErr := LoadEndpoints(configPath)

	registry := providers.NewRegistry()
	_ = registry.Register(consumet.New(endpoints.Gogoanime.Endpoints, client))
	_ = registry.Register(zoro.New(endpoints.Zoro.BaseURL, client))
	_ = registry.Register(toonworld.New(endpoints.Toonworld.BaseURL, client))
	_ = registry.Register(anilist.New(endpoints.AniList.Endpoint, client))
	_ = registry.Register(jikan.New(endpoints.Jikan.BaseURL, client))

	return registry, loadErr
}
