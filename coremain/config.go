package coremain

import (
	"github.com/pmkol/strqueue/mlog"
)

type Config struct {
	Log     mlog.LogConfig `yaml:"log"`
	Harness HarnessConfig  `yaml:"harness"`
}

type HarnessConfig struct {
	// FailPercent is the percentage of allocations that will be refused.
	// 0-100.
	FailPercent int `yaml:"fail_percent"`

	// StringLength is the longest value rh can return. Longer values are
	// truncated. Default is 1024.
	StringLength int `yaml:"string_length"`

	// Seed of the allocation failure sequence.
	Seed uint64 `yaml:"seed"`

	// ErrorLimit stops the console after this many errors.
	// 0 means no limit.
	ErrorLimit int `yaml:"error_limit"`

	// Echo writes every command before running it.
	Echo bool `yaml:"echo"`
}

const (
	defaultStringLength = 1024
	defaultErrorLimit   = 5
)

func setDefaults(c *HarnessConfig) {
	if c.StringLength <= 0 {
		c.StringLength = defaultStringLength
	}
	if c.ErrorLimit < 0 {
		c.ErrorLimit = 0
	}
}
