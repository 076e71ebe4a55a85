package config

import "time"

// ChatTab definition chat_tab YAML structure
type ChatTab struct {
	Profile  string       `mapstructure:"profile"`
	SeedDemo bool         `mapstructure:"seed_demo"`
	Debug    bool         `mapstructure:"debug"`
	Redis    RedisConfig  `mapstructure:"redis"`
	Sync     SyncConfig   `mapstructure:"sync"`
	Rooms    []RoomConfig `mapstructure:"rooms"`
}

// ChatGateway definition chat_gateway YAML structure
type ChatGateway struct {
	Port     string       `mapstructure:"port"`
	SeedDemo bool         `mapstructure:"seed_demo"`
	Debug    bool         `mapstructure:"debug"`
	Pprof    bool         `mapstructure:"pprof"`
	Redis    RedisConfig  `mapstructure:"redis"`
	Sync     SyncConfig   `mapstructure:"sync"`
	Rooms    []RoomConfig `mapstructure:"rooms"`
}

// RedisConfig definition redis setting
// Addr is used when no sentinel is found in the environment
type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryInterval int    `mapstructure:"retry_interval"`
	// Memory run every context against a process-local store instead of redis
	Memory bool `mapstructure:"memory"`
}

// SyncConfig definition the sync engine setting
type SyncConfig struct {
	Namespace    string        `mapstructure:"namespace"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// RoomConfig definition one static chat room
type RoomConfig struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

const (
	// DefaultNamespace key prefix used when sync.namespace is empty
	DefaultNamespace = "chat"
	// DefaultPollInterval poll period used when sync.poll_interval is empty
	DefaultPollInterval = time.Second
)

// WithDefaults fill zero values
func (s SyncConfig) WithDefaults() SyncConfig {
	if s.Namespace == "" {
		s.Namespace = DefaultNamespace
	}
	if s.PollInterval <= 0 {
		s.PollInterval = DefaultPollInterval
	}
	return s
}
