package database

import (
	"time"
)

// RedisConnection definition redis setting
// SentinelAddrs wins over Addr when set
type RedisConnection struct {
	Addr          string
	MasterName    string
	SentinelAddrs []string
	Password      string
	DB            int

	RetryCount    int
	RetryInterval time.Duration
}
