/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package config holds gobalance's startup configuration: the reference
// values from the specification, layered with CLI flags, environment
// variables and an optional file by cmd/gobalance via spf13/viper, and
// validated with go-playground/validator before the proxy starts.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"

	liberr "github.com/nabbar/gobalance/errors"
)

// Config is the fully resolved, validated set of tunables for one run of
// the proxy. Every field here corresponds to a reference value named in
// the specification (spec.md §4, §5, §6).
type Config struct {
	Port int `mapstructure:"port" validate:"gte=1,lte=65535"`

	HostsFile string `mapstructure:"hosts" validate:"required"`
	Workers   int    `mapstructure:"workers" validate:"gte=1"`

	BufferSize int `mapstructure:"buffer-size" validate:"gte=1"`

	ConnectTimeout time.Duration `mapstructure:"connect-timeout" validate:"gt=0"`
	PollTimeout    time.Duration `mapstructure:"poll-timeout" validate:"gt=0"`

	CooldownBase time.Duration `mapstructure:"cooldown-base" validate:"gt=0"`
	CooldownCap  uint           `mapstructure:"cooldown-cap" validate:"gte=0"`

	LogLevel  string `mapstructure:"log-level" validate:"oneof=error warn info debug"`
	LogFormat string `mapstructure:"log-format" validate:"oneof=text json"`
	NoColor   bool   `mapstructure:"no-color"`
}

// Default returns the reference configuration from the specification:
// port 4554, host file "hosts", 4 workers, 4 KiB buffer, 400ms connect
// timeout, 10ms poll timeout, 500ms base cooldown capped at 2^6.
func Default() Config {
	return Config{
		Port:           4554,
		HostsFile:      "hosts",
		Workers:        4,
		BufferSize:     4096,
		ConnectTimeout: 400 * time.Millisecond,
		PollTimeout:    10 * time.Millisecond,
		CooldownBase:   500 * time.Millisecond,
		CooldownCap:    6,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

var validate = validator.New()

// Validate checks c against its struct tags and returns a liberr.Error
// with code ConfigInvalid on failure.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return liberr.Wrap(liberr.ConfigInvalid, "", err)
	}

	return nil
}
