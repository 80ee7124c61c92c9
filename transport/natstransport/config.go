package natstransport

import (
	"fmt"
	"regexp"
	"time"

	"github.com/arloliu/divvy/types"
)

// Default configuration values.
const (
	DefaultSubjectPrefix = "divvy"
	DefaultRankBucket    = "divvy-ranks"
	DefaultRankTTL       = 30 * time.Second
	DefaultJoinTimeout   = time.Minute
	DefaultMailboxSize   = 256

	// AutoRank asks Join to claim the lowest free rank.
	AutoRank = -1
)

// nameRe restricts group names and subject prefixes to single NATS tokens
// that are also valid KV key segments.
var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Config configures a NATS transport endpoint.
type Config struct {
	// Group identifies the set of cooperating processes.
	Group string `yaml:"group"`

	// Size is the number of ranks in the group.
	Size int `yaml:"size"`

	// Rank is this process's rank, or AutoRank to claim one.
	Rank int `yaml:"rank"`

	// SubjectPrefix is the first token of every data subject.
	SubjectPrefix string `yaml:"subjectPrefix"`

	// RankBucket is the KV bucket holding rank claims.
	RankBucket string `yaml:"rankBucket"`

	// RankTTL bounds how long the claim of a dead process survives.
	RankTTL time.Duration `yaml:"rankTTL"`

	// JoinTimeout bounds Join when the caller's context has no deadline.
	JoinTimeout time.Duration `yaml:"joinTimeout"`

	// MailboxSize is the initial capacity of each per-source queue. Queues
	// grow past it; a warning is logged when a backlog first reaches it.
	MailboxSize int `yaml:"mailboxSize"`
}

// DefaultConfig returns a Config with defaults and automatic rank claiming.
func DefaultConfig() Config {
	return Config{
		Rank:          AutoRank,
		SubjectPrefix: DefaultSubjectPrefix,
		RankBucket:    DefaultRankBucket,
		RankTTL:       DefaultRankTTL,
		JoinTimeout:   DefaultJoinTimeout,
		MailboxSize:   DefaultMailboxSize,
	}
}

// SetDefaults fills zero-valued fields with defaults.
//
// Rank is left alone: 0 is a valid fixed rank.
func (c *Config) SetDefaults() {
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = DefaultSubjectPrefix
	}
	if c.RankBucket == "" {
		c.RankBucket = DefaultRankBucket
	}
	if c.RankTTL == 0 {
		c.RankTTL = DefaultRankTTL
	}
	if c.JoinTimeout == 0 {
		c.JoinTimeout = DefaultJoinTimeout
	}
	if c.MailboxSize == 0 {
		c.MailboxSize = DefaultMailboxSize
	}
}

// Validate checks the configuration.
//
// Returns:
//   - error: types.ErrInvalidConfig describing the first problem found
func (c *Config) Validate() error {
	if !nameRe.MatchString(c.Group) {
		return fmt.Errorf("%w: group %q must match %s", types.ErrInvalidConfig, c.Group, nameRe)
	}
	if !nameRe.MatchString(c.SubjectPrefix) {
		return fmt.Errorf("%w: subjectPrefix %q must match %s", types.ErrInvalidConfig, c.SubjectPrefix, nameRe)
	}
	if !nameRe.MatchString(c.RankBucket) {
		return fmt.Errorf("%w: rankBucket %q must match %s", types.ErrInvalidConfig, c.RankBucket, nameRe)
	}
	if c.Size < 1 {
		return fmt.Errorf("%w: size must be >= 1, got %d", types.ErrInvalidConfig, c.Size)
	}
	if c.Rank != AutoRank && (c.Rank < 0 || c.Rank >= c.Size) {
		return fmt.Errorf("%w: rank %d not in [0,%d) and not %d", types.ErrInvalidConfig, c.Rank, c.Size, AutoRank)
	}
	if c.RankTTL < 0 {
		return fmt.Errorf("%w: rankTTL must be >= 0, got %s", types.ErrInvalidConfig, c.RankTTL)
	}
	if c.JoinTimeout < 0 {
		return fmt.Errorf("%w: joinTimeout must be >= 0, got %s", types.ErrInvalidConfig, c.JoinTimeout)
	}
	if c.MailboxSize < 1 {
		return fmt.Errorf("%w: mailboxSize must be >= 1, got %d", types.ErrInvalidConfig, c.MailboxSize)
	}

	return nil
}

// subject returns the data subject of rank.
func (c *Config) subject(rank int) string {
	return fmt.Sprintf("%s.%s.%d", c.SubjectPrefix, c.Group, rank)
}
