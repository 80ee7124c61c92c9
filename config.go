package divvy

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/divvy/partition"
	"github.com/arloliu/divvy/transport/natstransport"
)

var metricNamespaceRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// NATSConfig configures multi-process groups over NATS.
//
// NATS mode is enabled by a non-empty URL.
type NATSConfig struct {
	// URL is the NATS server URL, e.g. "nats://127.0.0.1:4222".
	URL string `yaml:"url"`

	// Group names the set of cooperating processes. Processes of one run must
	// share it; concurrent runs must not.
	Group string `yaml:"group"`

	// Size is the number of processes in the group.
	Size int `yaml:"size"`

	// Rank fixes this process's rank; -1 claims the lowest free one.
	Rank int `yaml:"rank"`

	// SubjectPrefix is the first token of every data subject.
	SubjectPrefix string `yaml:"subjectPrefix"`

	// RankBucket is the KV bucket holding rank claims.
	RankBucket string `yaml:"rankBucket"`

	// RankTTL is how long the rank claim of a crashed process survives.
	// Claims are renewed every RankTTL/3.
	RankTTL time.Duration `yaml:"rankTTL"`

	// JoinTimeout bounds the wait for the whole group to show up.
	JoinTimeout time.Duration `yaml:"joinTimeout"`

	// OperationTimeout bounds each share or scatter, including its collectives.
	OperationTimeout time.Duration `yaml:"operationTimeout"`
}

// Enabled reports whether NATS mode is configured.
func (c NATSConfig) Enabled() bool { return c.URL != "" }

// Transport returns the natstransport configuration.
func (c NATSConfig) Transport() natstransport.Config {
	return natstransport.Config{
		Group:         c.Group,
		Size:          c.Size,
		Rank:          c.Rank,
		SubjectPrefix: c.SubjectPrefix,
		RankBucket:    c.RankBucket,
		RankTTL:       c.RankTTL,
		JoinTimeout:   c.JoinTimeout,
		MailboxSize:   natstransport.DefaultMailboxSize,
	}
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace"`
}

// Config is the configuration of a divvy job.
//
// All duration fields accept standard Go duration strings like "30s", "5m", "1h".
type Config struct {
	// Policy is the partition policy name: duplicate, equal-length,
	// equal-stride, sorted-stride or weight-balanced.
	Policy string `yaml:"policy"`

	// ConsistencyCheck verifies that every rank holds the same input before
	// partitioning. Only meaningful with more than one process.
	ConsistencyCheck bool `yaml:"consistencyCheck"`

	// Verbosity controls user-facing output: messages below this level print.
	Verbosity int `yaml:"verbosity"`

	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// DefaultConfig returns the default configuration.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		Policy:           partition.KindEqualLength.String(),
		ConsistencyCheck: true,
		Verbosity:        1,
		NATS: NATSConfig{
			Group:            "divvy",
			Size:             1,
			Rank:             natstransport.AutoRank,
			SubjectPrefix:    natstransport.DefaultSubjectPrefix,
			RankBucket:       natstransport.DefaultRankBucket,
			RankTTL:          natstransport.DefaultRankTTL,
			JoinTimeout:      natstransport.DefaultJoinTimeout,
			OperationTimeout: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Namespace: "divvy",
		},
	}
}

// SetDefaults fills in missing configuration values with defaults.
//
// Booleans and Verbosity are left alone since their zero values are
// meaningful. Rank is left alone since 0 is a valid rank.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Policy == "" {
		cfg.Policy = defaults.Policy
	}
	if cfg.NATS.Group == "" {
		cfg.NATS.Group = defaults.NATS.Group
	}
	if cfg.NATS.Size == 0 {
		cfg.NATS.Size = defaults.NATS.Size
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = defaults.NATS.SubjectPrefix
	}
	if cfg.NATS.RankBucket == "" {
		cfg.NATS.RankBucket = defaults.NATS.RankBucket
	}
	if cfg.NATS.RankTTL == 0 {
		cfg.NATS.RankTTL = defaults.NATS.RankTTL
	}
	if cfg.NATS.JoinTimeout == 0 {
		cfg.NATS.JoinTimeout = defaults.NATS.JoinTimeout
	}
	if cfg.NATS.OperationTimeout == 0 {
		cfg.NATS.OperationTimeout = defaults.NATS.OperationTimeout
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = defaults.Metrics.Namespace
	}
}

// Validate checks configuration constraints.
//
// NATS settings are only checked when NATS mode is enabled.
//
// Returns:
//   - error: ErrInvalidConfig (or ErrUnknownPolicy) with a clear explanation, nil if valid
func (cfg *Config) Validate() error {
	if _, err := partition.ParseKind(cfg.Policy); err != nil {
		return fmt.Errorf("%w: policy: %w", ErrInvalidConfig, err)
	}

	if cfg.Verbosity < 0 {
		return fmt.Errorf("%w: verbosity must be >= 0, got %d", ErrInvalidConfig, cfg.Verbosity)
	}

	if !metricNamespaceRe.MatchString(cfg.Metrics.Namespace) {
		return fmt.Errorf("%w: metrics namespace %q must match %s", ErrInvalidConfig, cfg.Metrics.Namespace, metricNamespaceRe)
	}

	if cfg.NATS.Enabled() {
		tc := cfg.NATS.Transport()
		if err := tc.Validate(); err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		if cfg.NATS.OperationTimeout < 0 {
			return fmt.Errorf("%w: nats operationTimeout must be >= 0, got %v", ErrInvalidConfig, cfg.NATS.OperationTimeout)
		}
	}

	return nil
}

// ValidateWithWarnings logs warnings for valid but questionable settings.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if !cfg.NATS.Enabled() {
		return
	}

	if !cfg.ConsistencyCheck && cfg.NATS.Size > 1 {
		logger.Warn(
			"consistency check disabled; ranks reading different inputs will silently miss or duplicate items",
			"group", cfg.NATS.Group,
			"size", cfg.NATS.Size,
		)
	}

	if cfg.NATS.RankTTL < 3*time.Second {
		logger.Warn(
			"RankTTL is very short, claims are renewed every RankTTL/3",
			"rankTTL", cfg.NATS.RankTTL,
			"recommended", "10s or higher",
		)
	}
}

// Kind returns the parsed policy kind.
//
// Returns:
//   - Kind: Policy kind
//   - error: ErrUnknownPolicy if Policy is not a known name
func (cfg *Config) Kind() (Kind, error) {
	return partition.ParseKind(cfg.Policy)
}

// LoadConfig reads a YAML configuration file.
//
// Unset fields keep their DefaultConfig values and the result is validated.
//
// Parameters:
//   - path: Path to the YAML file
//
// Returns:
//   - Config: Loaded configuration
//   - error: Read, parse, or validation error
//
// Example:
//
//	cfg, err := divvy.LoadConfig("divvy.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration bytes the way LoadConfig does.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
	}

	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// TestConfig returns a configuration with fast timings for tests.
//
// Returns:
//   - Config: Configuration with fast timings for tests
//
// Example:
//
//	cfg := divvy.TestConfig()
//	cfg.NATS.Group = "test-group"
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.NATS.RankTTL = 5 * time.Second
	cfg.NATS.JoinTimeout = 5 * time.Second
	cfg.NATS.OperationTimeout = 5 * time.Second

	return cfg
}
