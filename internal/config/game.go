package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// GameConfig carries the tunables of a running escape session. The
// checkpoint interval bounds how far a non-host client's displayed
// countdown can drift from the persisted value.
type GameConfig struct {
	InitialTimerSec    int           `env:"INITIAL_TIMER_SEC" envDefault:"3600"`
	TimerCheckpointSec int           `env:"TIMER_CHECKPOINT_SEC" envDefault:"5"`
	HeartbeatInterval  time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"30s"`
	StaleAfterBeats    int           `env:"STALE_AFTER_BEATS" envDefault:"3"`
	ReaperInterval     time.Duration `env:"REAPER_INTERVAL" envDefault:"1m"`
	MaxHints           int           `env:"MAX_HINTS" envDefault:"3"`
	FeedBufferSize     int           `env:"FEED_BUFFER_SIZE" envDefault:"500"`
	WriteRetries       int           `env:"WRITE_RETRIES" envDefault:"5"`
}

func LoadGame() (GameConfig, error) {
	var cfg GameConfig
	err := env.Parse(&cfg)
	return cfg, err
}

// StaleAfter is the last-seen age beyond which a player counts as
// crashed for the reaper sweep.
func (c GameConfig) StaleAfter() time.Duration {
	beats := c.StaleAfterBeats
	if beats < 1 {
		beats = 1
	}
	return time.Duration(beats) * c.HeartbeatInterval
}
