package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DirName is the per-workspace directory holding config, artifacts and the run lock.
const DirName = ".javachain"

// SupportedConfigVersions lists config schema versions this build understands.
var SupportedConfigVersions = []int{1}

// Config represents the complete javachain configuration (v1 schema)
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Filters   FiltersConfig   `json:"filters" mapstructure:"filters"`
	Traversal TraversalConfig `json:"traversal" mapstructure:"traversal"`
	Review    ReviewConfig    `json:"review" mapstructure:"review"`
	Artifacts ArtifactsConfig `json:"artifacts" mapstructure:"artifacts"`
	Storage   StorageConfig   `json:"storage" mapstructure:"storage"`
	Export    ExportConfig    `json:"export" mapstructure:"export"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// FiltersConfig holds the keyword lists that keep boilerplate out of the index.
// Keywords are matched as substrings of the lowercased package, class or
// method signature.
type FiltersConfig struct {
	PackageKeywords []string `json:"packageKeywords" mapstructure:"packageKeywords"`
	ClassKeywords   []string `json:"classKeywords" mapstructure:"classKeywords"`
	MethodKeywords  []string `json:"methodKeywords" mapstructure:"methodKeywords"`
}

// TraversalConfig bounds call-graph expansion per changed signature.
type TraversalConfig struct {
	MaxCallsOut int `json:"maxCallsOut" mapstructure:"maxCallsOut"`
	MaxCallsIn  int `json:"maxCallsIn" mapstructure:"maxCallsIn"`
}

// ReviewConfig configures the violation filter.
type ReviewConfig struct {
	PolicyPath string `json:"policyPath" mapstructure:"policyPath"`
	// PMDReportPath is the default violation report, relative to the
	// project root. Empty disables the violation filter.
	PMDReportPath string   `json:"pmdReportPath" mapstructure:"pmdReportPath"`
	DefaultLevel  string   `json:"defaultLevel" mapstructure:"defaultLevel"`
	SkipRules     []string `json:"skipRules" mapstructure:"skipRules"`
}

// ArtifactsConfig configures where stage artifacts are written.
type ArtifactsConfig struct {
	Dir      string `json:"dir" mapstructure:"dir"`
	Compress bool   `json:"compress" mapstructure:"compress"`
}

// StorageConfig configures the SQLite snapshot store.
type StorageConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// ExportConfig holds Neo4j connection settings for graph export.
type ExportConfig struct {
	Neo4jURI      string `json:"neo4jUri" mapstructure:"neo4jUri"`
	Neo4jUser     string `json:"neo4jUser" mapstructure:"neo4jUser"`
	Neo4jPassword string `json:"neo4jPassword" mapstructure:"neo4jPassword"`
}

// LoggingConfig contains logging configuration. Components overrides the
// level per engine component (indexer, resolver, changes, callgraph, ...).
type LoggingConfig struct {
	Level      string            `json:"level" mapstructure:"level"`
	File       string            `json:"file" mapstructure:"file"`
	Components map[string]string `json:"components" mapstructure:"components"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	boilerplate := []string{".util.", ".test.", ".dto.", ".model.", ".vo.", ".test", ".domain.", ".entity.", ".enums."}
	return &Config{
		Version: 1,
		Filters: FiltersConfig{
			PackageKeywords: append([]string(nil), boilerplate...),
			ClassKeywords:   append([]string(nil), boilerplate...),
			MethodKeywords:  []string{".getcode(", "getbyid"},
		},
		Traversal: TraversalConfig{
			MaxCallsOut: 3,
			MaxCallsIn:  3,
		},
		Review: ReviewConfig{
			PolicyPath:   filepath.Join(DirName, "review-policy.toml"),
			DefaultLevel: "LOW",
			SkipRules:    []string{},
		},
		Artifacts: ArtifactsConfig{
			Dir:      filepath.Join(DirName, "runs"),
			Compress: false,
		},
		Storage: StorageConfig{
			Enabled: true,
			Path:    filepath.Join(DirName, "snapshots.db"),
		},
		Export: ExportConfig{
			Neo4jURI:  "bolt://localhost:7687",
			Neo4jUser: "neo4j",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Components: map[string]string{},
		},
	}
}

// legacyEnv maps config keys to the environment variable names used by the
// review bot deployment. They are bound alongside JAVACHAIN_* variables.
var legacyEnv = map[string]string{
	"filters.packageKeywords": "CODE_CALL_PACKAGE_FILE_FILTER_KEYWORDS",
	"filters.classKeywords":   "CODE_CALL_CHAIN_JAVA_CLASS_FILTER_KEYWORDS",
	"filters.methodKeywords":  "CODE_CALL_CHAIN_JAVA_METHOD_FILTER_KEYWORDS",
	"review.skipRules":        "CODE_CALL_CHAIN_P3C_SKIP_ROLE",
}

// LoadConfig loads configuration from <dir>/.javachain/config.json and
// applies environment overrides. A missing file yields the defaults plus
// any overrides.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(dir, DirName))

	v.SetEnvPrefix("JAVACHAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "JAVACHAIN_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("filters.packageKeywords", d.Filters.PackageKeywords)
	v.SetDefault("filters.classKeywords", d.Filters.ClassKeywords)
	v.SetDefault("filters.methodKeywords", d.Filters.MethodKeywords)
	v.SetDefault("traversal.maxCallsOut", d.Traversal.MaxCallsOut)
	v.SetDefault("traversal.maxCallsIn", d.Traversal.MaxCallsIn)
	v.SetDefault("review.policyPath", d.Review.PolicyPath)
	v.SetDefault("review.pmdReportPath", d.Review.PMDReportPath)
	v.SetDefault("review.defaultLevel", d.Review.DefaultLevel)
	v.SetDefault("review.skipRules", d.Review.SkipRules)
	v.SetDefault("artifacts.dir", d.Artifacts.Dir)
	v.SetDefault("artifacts.compress", d.Artifacts.Compress)
	v.SetDefault("storage.enabled", d.Storage.Enabled)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("export.neo4jUri", d.Export.Neo4jURI)
	v.SetDefault("export.neo4jUser", d.Export.Neo4jUser)
	v.SetDefault("export.neo4jPassword", d.Export.Neo4jPassword)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.components", d.Logging.Components)
}

// normalize trims keyword lists. Env overrides arrive as one comma separated
// string and may carry spaces around each item.
func (c *Config) normalize() {
	c.Filters.PackageKeywords = splitKeywords(c.Filters.PackageKeywords)
	c.Filters.ClassKeywords = splitKeywords(c.Filters.ClassKeywords)
	c.Filters.MethodKeywords = splitKeywords(c.Filters.MethodKeywords)
	c.Review.SkipRules = splitKeywords(c.Review.SkipRules)
	if c.Logging.Components == nil {
		c.Logging.Components = map[string]string{}
	}
}

func splitKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, kw := range strings.Split(item, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				out = append(out, kw)
			}
		}
	}
	return out
}

// Save writes the configuration to <dir>/.javachain/config.json
func (c *Config) Save(dir string) error {
	configDir := filepath.Join(dir, DirName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(configDir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	supported := false
	for _, v := range SupportedConfigVersions {
		if c.Version == v {
			supported = true
			break
		}
	}
	if !supported {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Traversal.MaxCallsOut < 0 {
		return &ConfigError{Field: "traversal.maxCallsOut", Message: "must not be negative"}
	}
	if c.Traversal.MaxCallsIn < 0 {
		return &ConfigError{Field: "traversal.maxCallsIn", Message: "must not be negative"}
	}
	switch strings.ToUpper(c.Review.DefaultLevel) {
	case "HIGH", "MIDDLE", "LOW":
	default:
		return &ConfigError{Field: "review.defaultLevel", Message: "must be HIGH, MIDDLE or LOW"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
