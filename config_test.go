package divvy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/divvy/transport/natstransport"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, "equal-length", cfg.Policy)
	require.True(t, cfg.ConsistencyCheck)
	require.Equal(t, 1, cfg.Verbosity)
	require.False(t, cfg.NATS.Enabled())
	require.Equal(t, natstransport.AutoRank, cfg.NATS.Rank)
	require.Equal(t, 30*time.Second, cfg.NATS.RankTTL)
	require.Equal(t, time.Minute, cfg.NATS.JoinTimeout)
	require.Equal(t, 30*time.Second, cfg.NATS.OperationTimeout)
	require.Equal(t, "divvy", cfg.Metrics.Namespace)
	require.NoError(t, cfg.Validate())
}

func TestSetDefaults(t *testing.T) {
	t.Run("applies defaults to empty config", func(t *testing.T) {
		cfg := Config{}
		SetDefaults(&cfg)

		require.Equal(t, "equal-length", cfg.Policy)
		require.Equal(t, "divvy", cfg.NATS.Group)
		require.Equal(t, 1, cfg.NATS.Size)
		require.Equal(t, 0, cfg.NATS.Rank, "rank 0 is a valid explicit rank")
		require.Equal(t, "divvy-ranks", cfg.NATS.RankBucket)
		require.Equal(t, "divvy", cfg.Metrics.Namespace)
		require.False(t, cfg.ConsistencyCheck)
	})

	t.Run("preserves custom values", func(t *testing.T) {
		cfg := Config{
			Policy:    "weight-balanced",
			Verbosity: 3,
			NATS: NATSConfig{
				Group:            "ingest",
				Size:             8,
				RankTTL:          time.Minute,
				JoinTimeout:      2 * time.Minute,
				OperationTimeout: time.Second,
			},
			Metrics: MetricsConfig{Namespace: "ingest"},
		}
		SetDefaults(&cfg)

		require.Equal(t, "weight-balanced", cfg.Policy)
		require.Equal(t, 3, cfg.Verbosity)
		require.Equal(t, "ingest", cfg.NATS.Group)
		require.Equal(t, 8, cfg.NATS.Size)
		require.Equal(t, time.Minute, cfg.NATS.RankTTL)
		require.Equal(t, 2*time.Minute, cfg.NATS.JoinTimeout)
		require.Equal(t, time.Second, cfg.NATS.OperationTimeout)
		require.Equal(t, "ingest", cfg.Metrics.Namespace)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown policy", func(c *Config) { c.Policy = "random" }},
		{"negative verbosity", func(c *Config) { c.Verbosity = -1 }},
		{"bad namespace", func(c *Config) { c.Metrics.Namespace = "my-app" }},
		{"nats size", func(c *Config) { c.NATS.URL = "nats://x"; c.NATS.Size = 0 }},
		{"nats rank", func(c *Config) { c.NATS.URL = "nats://x"; c.NATS.Size = 2; c.NATS.Rank = 2 }},
		{"nats group", func(c *Config) { c.NATS.URL = "nats://x"; c.NATS.Group = "a.b" }},
		{"nats timeout", func(c *Config) { c.NATS.URL = "nats://x"; c.NATS.OperationTimeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("nats settings ignored when disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.NATS.Group = "a.b"
		require.NoError(t, cfg.Validate())
	})
}

func TestConfig_Kind(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = "Sorted_Stride"

	kind, err := cfg.Kind()
	require.NoError(t, err)
	require.Equal(t, KindSortedStride, kind)
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	require.Equal(t, 5*time.Second, cfg.NATS.RankTTL)
	require.Equal(t, 5*time.Second, cfg.NATS.JoinTimeout)
	require.NoError(t, cfg.Validate())
}

func TestParseConfig(t *testing.T) {
	input := `
policy: weight-balanced
consistencyCheck: false
verbosity: 2
nats:
  url: nats://127.0.0.1:4222
  group: nightly
  size: 4
  rank: 0
  rankTTL: 45s
  operationTimeout: 2m
metrics:
  namespace: nightly
`
	cfg, err := ParseConfig([]byte(input))
	require.NoError(t, err)

	require.Equal(t, "weight-balanced", cfg.Policy)
	require.False(t, cfg.ConsistencyCheck)
	require.Equal(t, 2, cfg.Verbosity)
	require.True(t, cfg.NATS.Enabled())
	require.Equal(t, "nightly", cfg.NATS.Group)
	require.Equal(t, 4, cfg.NATS.Size)
	require.Equal(t, 0, cfg.NATS.Rank)
	require.Equal(t, 45*time.Second, cfg.NATS.RankTTL)
	require.Equal(t, 2*time.Minute, cfg.NATS.OperationTimeout)
	require.Equal(t, time.Minute, cfg.NATS.JoinTimeout, "unset fields keep defaults")
	require.Equal(t, natstransport.DefaultSubjectPrefix, cfg.NATS.SubjectPrefix)

	tc := cfg.NATS.Transport()
	require.Equal(t, 4, tc.Size)
	require.Equal(t, natstransport.DefaultMailboxSize, tc.MailboxSize)

	t.Run("rank defaults to automatic", func(t *testing.T) {
		cfg, err := ParseConfig([]byte("policy: duplicate\n"))
		require.NoError(t, err)
		require.Equal(t, natstransport.AutoRank, cfg.NATS.Rank)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseConfig([]byte("policy: [unterminated"))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := ParseConfig([]byte("policy: chunky\n"))
		require.ErrorIs(t, err, ErrInvalidConfig)
		require.ErrorIs(t, err, ErrUnknownPolicy)
	})
}

func TestLoadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = "equal-stride"
	data, err := yaml.Marshal(&cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "divvy.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateWithWarnings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NATS.URL = "nats://x"
	cfg.NATS.Size = 3
	cfg.ConsistencyCheck = false
	cfg.NATS.RankTTL = time.Second

	logger := &countingLogger{}
	cfg.ValidateWithWarnings(logger)
	require.Equal(t, 2, logger.warns)
}

type countingLogger struct{ warns int }

func (l *countingLogger) Debug(string, ...any) {}
func (l *countingLogger) Info(string, ...any)  {}
func (l *countingLogger) Warn(string, ...any)  { l.warns++ }
func (l *countingLogger) Error(string, ...any) {}
func (l *countingLogger) Fatal(string, ...any) {}
