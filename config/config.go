// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package config provides the YAML configuration for the zones whose
// dst transitions are to be resolved and where they are to be stored.
package config

import (
	"context"
	"fmt"
	"time"

	"cloudeng.io/cmdutil/cmdyaml"
	"gopkg.in/yaml.v3"
)

// TimeZone is a time.Location that can be unmarshaled from a YAML
// IANA zone name. An empty value is the local time zone.
type TimeZone struct {
	*time.Location
}

func (tz *TimeZone) UnmarshalYAML(node *yaml.Node) error {
	l, err := locationFromValue(node.Value)
	if err != nil {
		return err
	}
	tz.Location = l
	return nil
}

func (tz TimeZone) MarshalYAML() (any, error) {
	if tz.Location == nil {
		return "", nil
	}
	return tz.Location.String(), nil
}

func locationFromValue(value string) (*time.Location, error) {
	if len(value) == 0 {
		return time.Now().Location(), nil
	}
	location, err := time.LoadLocation(value)
	if err != nil {
		return nil, err
	}
	return location, nil
}

type StoreConfig struct {
	Database string `yaml:"database" cmd:"path of the sqlite database used to store the transitions"`
	Table    string `yaml:"table" cmd:"table to store the transitions in, defaults to dst_change"`
}

type Config struct {
	Zones           []string    `yaml:"zones,flow" cmd:"the IANA names of the zones to resolve"`
	DisplayTimeZone TimeZone    `yaml:"display_time_zone" cmd:"the timezone used when displaying times other than transitions"`
	Store           StoreConfig `yaml:"store" cmd:"where resolved transitions are stored"`
}

// Display returns the location used for displaying times that are not
// specific to a zone.
func (c Config) Display() *time.Location {
	if c.DisplayTimeZone.Location == nil {
		return time.Local
	}
	return c.DisplayTimeZone.Location
}

func (c Config) validate() error {
	seen := map[string]bool{}
	for _, z := range c.Zones {
		if len(z) == 0 {
			return fmt.Errorf("empty zone name")
		}
		if seen[z] {
			return fmt.Errorf("duplicate zone: %q", z)
		}
		seen[z] = true
	}
	return nil
}

// ParseConfigFile reads and validates the configuration in cfgFile.
func ParseConfigFile(ctx context.Context, cfgFile string) (Config, error) {
	var cfg Config
	if err := cmdyaml.ParseConfigFile(ctx, cfgFile, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%v: %w", cfgFile, err)
	}
	return cfg, nil
}

// ParseConfig parses and validates the configuration in cfgData.
func ParseConfig(cfgData []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
