package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/calyptra/vecstage/core"
	"gopkg.in/yaml.v3"
)

// DatasetConfig declares one content dataset: where its pages come from,
// which vector namespaces it owns, and the golden queries that gate its
// promotion.
type DatasetConfig struct {
	Name          string             `yaml:"name"`
	RootURLs      []string           `yaml:"root_urls"`
	Staging       string             `yaml:"staging_namespace"`
	Production    string             `yaml:"production_namespace"`
	GoldenQueries []core.GoldenQuery `yaml:"golden_queries"`
}

// ChunkingConfig sets the target token range for assembled chunks.
type ChunkingConfig struct {
	MinTokens int `yaml:"min_tokens"`
	MaxTokens int `yaml:"max_tokens"`
}

// EmbedderConfig configures the OpenAI-compatible embedding endpoint.
// The API key is named by environment variable, never stored in the file.
type EmbedderConfig struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL              string `yaml:"url"`
	APIKey           string `yaml:"api_key"`
	CollectionPrefix string `yaml:"collection_prefix"`
	Dimension        int    `yaml:"dimension"`
	TimeoutSecs      int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"` // "memory" or "qdrant"
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// PromotionConfig tunes the staging-to-production mirror.
type PromotionConfig struct {
	PruneStale  *bool `yaml:"prune_stale,omitempty"` // default true
	LockTTLMins int   `yaml:"lock_ttl_mins"`
}

// RetryConfig tunes retries for embedding and vector store calls.
type RetryConfig struct {
	MaxAttempts   int `yaml:"max_attempts"`
	BaseDelaySecs int `yaml:"base_delay_secs"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	StoragePath string            `yaml:"storage_path"`
	Datasets    []DatasetConfig   `yaml:"datasets"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Promotion   PromotionConfig   `yaml:"promotion"`
	Retry       RetryConfig       `yaml:"retry"`
}

var (
	// ErrNoDatasets is returned when the config declares no datasets.
	ErrNoDatasets = errors.New("config declares no datasets")

	// ErrDuplicateDataset is returned when two datasets share a name.
	ErrDuplicateDataset = errors.New("duplicate dataset name")

	// ErrUnknownStoreType is returned for an unrecognized vector store type.
	ErrUnknownStoreType = errors.New("unknown vector store type")
)

// Load reads a config from the specified path. If the file does not exist,
// returns defaults (one dataset must still be declared before use).
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *AppConfig) Validate() error {
	if len(c.Datasets) == 0 {
		return ErrNoDatasets
	}
	seen := make(map[string]struct{}, len(c.Datasets))
	for i := range c.Datasets {
		dataset := c.Datasets[i].Dataset()
		if err := core.ValidateDataset(&dataset); err != nil {
			return fmt.Errorf("dataset %q: %w", c.Datasets[i].Name, err)
		}
		if _, dup := seen[dataset.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateDataset, dataset.Name)
		}
		seen[dataset.Name] = struct{}{}
		for j := range c.Datasets[i].GoldenQueries {
			if err := core.ValidateGoldenQuery(&c.Datasets[i].GoldenQueries[j]); err != nil {
				return fmt.Errorf("dataset %q: %w", c.Datasets[i].Name, err)
			}
		}
	}
	switch c.VectorStore.Type {
	case "memory":
	case "qdrant":
		if c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "" {
			return errors.New("qdrant vector store requires a url")
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownStoreType, c.VectorStore.Type)
	}
	if c.Chunking.MinTokens >= c.Chunking.MaxTokens {
		return fmt.Errorf("chunking min_tokens %d must be below max_tokens %d",
			c.Chunking.MinTokens, c.Chunking.MaxTokens)
	}
	return nil
}

// Dataset converts the declaration into the domain model.
// Namespaces default to "<name>-staging" and "<name>-production".
func (d *DatasetConfig) Dataset() core.Dataset {
	staging := d.Staging
	if staging == "" {
		staging = d.Name + "-staging"
	}
	production := d.Production
	if production == "" {
		production = d.Name + "-production"
	}
	return core.Dataset{
		Name:       d.Name,
		RootURLs:   d.RootURLs,
		Staging:    staging,
		Production: production,
	}
}

// FindDataset returns the declaration for a dataset name, or nil.
func (c *AppConfig) FindDataset(name string) *DatasetConfig {
	for i := range c.Datasets {
		if c.Datasets[i].Name == name {
			return &c.Datasets[i]
		}
	}
	return nil
}

// PruneStaleEnabled reports the effective prune policy, defaulting to true.
func (p *PromotionConfig) PruneStaleEnabled() bool {
	if p.PruneStale == nil {
		return true
	}
	return *p.PruneStale
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		StoragePath: "vecstage.db",
		VectorStore: VectorStoreConfig{Type: "memory"},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.StoragePath == "" {
		cfg.StoragePath = "vecstage.db"
	}
	if cfg.Chunking.MinTokens == 0 {
		cfg.Chunking.MinTokens = 300
	}
	if cfg.Chunking.MaxTokens == 0 {
		cfg.Chunking.MaxTokens = 600
	}
	if cfg.Embedder.Host == "" {
		cfg.Embedder.Host = "https://api.openai.com/v1"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil {
		if cfg.VectorStore.Qdrant.CollectionPrefix == "" {
			cfg.VectorStore.Qdrant.CollectionPrefix = "vecstage"
		}
		if cfg.VectorStore.Qdrant.Dimension == 0 {
			cfg.VectorStore.Qdrant.Dimension = 1536
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 30
		}
	}
	if cfg.Promotion.LockTTLMins == 0 {
		cfg.Promotion.LockTTLMins = 15
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.BaseDelaySecs == 0 {
		cfg.Retry.BaseDelaySecs = 1
	}
}
