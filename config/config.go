// Package config loads the service configuration from a yaml file and the environment.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"viz-query-service/logger"
)

// Transport kinds.
const (
	TransportElasticsearch = "elasticsearch"
	TransportHTTP          = "http"
)

// Elasticsearch holds the client settings.
type Elasticsearch struct {
	Addresses          []string `mapstructure:"addresses"`
	Username           string   `mapstructure:"username"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
}

// Config is the whole service configuration.
type Config struct {
	Listen        string        `mapstructure:"listen"`
	Transport     string        `mapstructure:"transport"`
	Elasticsearch Elasticsearch `mapstructure:"elasticsearch"`
	// DefaultEndpoint is an index for the elasticsearch transport, a URL for http.
	DefaultEndpoint string `mapstructure:"default_endpoint"`
	// Indices maps a data type to the index holding it.
	Indices map[string]string `mapstructure:"indices"`
	// ReadAlias searches the read alias of an index instead of the index.
	ReadAlias   bool           `mapstructure:"read_alias"`
	NestedPath  string         `mapstructure:"nested_path"`
	JoinKey     string         `mapstructure:"join_key"`
	SchemaFile  string         `mapstructure:"schema_file"`
	InferSchema bool           `mapstructure:"infer_schema"`
	Logging     logger.Logging `mapstructure:"logging"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Listen:    ":1234",
		Transport: TransportElasticsearch,
		Elasticsearch: Elasticsearch{
			Addresses: []string{"https://localhost:9200"},
		},
		NestedPath: "nested",
		JoinKey:    "id",
		SchemaFile: "schema.yaml",
		Logging:    logger.Logging{Env: "prod", Level: "info"},
	}
}

// Load reads the config file at path, or config.yaml in configDir when path is empty.
// Environment variables prefixed with VIZQ_ override file values.
func Load(path, configDir string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(configDir)
	}
	v.SetEnvPrefix("VIZQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen", cfg.Listen)
	v.SetDefault("transport", cfg.Transport)
	v.SetDefault("elasticsearch.addresses", cfg.Elasticsearch.Addresses)
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("elasticsearch.insecure_skip_verify", false)
	v.SetDefault("default_endpoint", "")
	v.SetDefault("read_alias", false)
	v.SetDefault("nested_path", cfg.NestedPath)
	v.SetDefault("join_key", cfg.JoinKey)
	v.SetDefault("schema_file", cfg.SchemaFile)
	v.SetDefault("infer_schema", false)
	v.SetDefault("logging.env", cfg.Logging.Env)
	v.SetDefault("logging.level", cfg.Logging.Level)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return cfg, errors.Wrap(err, "read config")
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "decode config")
	}
	switch cfg.Transport {
	case TransportElasticsearch, TransportHTTP:
	default:
		return cfg, errors.Errorf("unknown transport %q", cfg.Transport)
	}
	return cfg, nil
}

// IndexFor returns the index configured for a data type.
func (c Config) IndexFor(dataType string) (string, bool) {
	idx, ok := c.Indices[dataType]
	return idx, ok && idx != ""
}
