// Package config loads the Googol process configuration from a YAML file,
// mirroring Googol's configuration surface (rmi.host/port,
// barrels.count/prefix, bloom sizing, …). Any field may be overridden by an
// environment variable of the same name with dots replaced by underscores
// and upper-cased (e.g. BARRELS_COUNT).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration object every Googol binary loads once at
// startup.
type Config struct {
	RMI struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"rmi"`

	Gateway struct {
		Name string `yaml:"name"`
		Addr string `yaml:"addr"`
	} `yaml:"gateway"`

	Barrels struct {
		Count  int    `yaml:"count"`
		Prefix string `yaml:"prefix"`
	} `yaml:"barrels"`

	Downloader struct {
		Threads int `yaml:"threads"`
	} `yaml:"downloader"`

	Bloom struct {
		ExpectedElements  uint    `yaml:"expected_elements"`
		FalsePositiveRate float64 `yaml:"false_positive_rate"`
	} `yaml:"bloom"`

	Statistics struct {
		MonitorIntervalMs int `yaml:"monitor_interval_ms"`
	} `yaml:"statistics"`

	Barrel struct {
		AutosaveIntervalSec int `yaml:"autosave_interval_sec"`
	} `yaml:"barrel"`
}

// Default returns a Config populated with Googol's defaults (60s autosave,
// 3s stats monitor interval, 2 downloader threads, …).
func Default() *Config {
	c := &Config{}
	c.RMI.Host = "127.0.0.1"
	c.RMI.Port = 1099
	c.Gateway.Name = "gateway"
	c.Barrels.Count = 1
	c.Barrels.Prefix = "barrel"
	c.Downloader.Threads = 2
	c.Bloom.ExpectedElements = 100000
	c.Bloom.FalsePositiveRate = 0.01
	c.Statistics.MonitorIntervalMs = 3000
	c.Barrel.AutosaveIntervalSec = 60
	return c
}

// Load reads path (a YAML file) into a Config seeded with Default(), then
// applies any matching environment variable overrides. A missing file is not
// an error: the caller gets the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: reading %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	applyEnvOverrides(c)
	return c, nil
}

// RegistryAddr renders the rmi.host/rmi.port pair as a dial address.
func (c *Config) RegistryAddr() string {
	return fmt.Sprintf("%s:%d", c.RMI.Host, c.RMI.Port)
}

// StatsMonitorInterval returns the stats push tick interval as a
// time.Duration.
func (c *Config) StatsMonitorInterval() time.Duration {
	return time.Duration(c.Statistics.MonitorIntervalMs) * time.Millisecond
}

// AutosaveInterval returns the primary Storage Node's snapshot interval as a
// time.Duration.
func (c *Config) AutosaveInterval() time.Duration {
	return time.Duration(c.Barrel.AutosaveIntervalSec) * time.Second
}

// BarrelName renders the configured name for the Storage Node at index i.
func (c *Config) BarrelName(i int) string {
	return fmt.Sprintf("%s%d", c.Barrels.Prefix, i)
}

func applyEnvOverrides(c *Config) {
	if v := getenv("RMI_HOST"); v != "" {
		c.RMI.Host = v
	}
	if v := getenvInt("RMI_PORT"); v != 0 {
		c.RMI.Port = v
	}
	if v := getenv("GATEWAY_NAME"); v != "" {
		c.Gateway.Name = v
	}
	if v := getenvInt("BARRELS_COUNT"); v != 0 {
		c.Barrels.Count = v
	}
	if v := getenv("BARRELS_PREFIX"); v != "" {
		c.Barrels.Prefix = v
	}
	if v := getenvInt("DOWNLOADER_THREADS"); v != 0 {
		c.Downloader.Threads = v
	}
	if v := getenv("GATEWAY_ADDR"); v != "" {
		c.Gateway.Addr = v
	}
	if v := getenvInt("BLOOM_EXPECTED_ELEMENTS"); v > 0 {
		c.Bloom.ExpectedElements = uint(v)
	}
	if v, err := strconv.ParseFloat(getenv("BLOOM_FALSE_POSITIVE_RATE"), 64); err == nil && v > 0 {
		c.Bloom.FalsePositiveRate = v
	}
	if v := getenvInt("STATISTICS_MONITOR_INTERVAL_MS"); v != 0 {
		c.Statistics.MonitorIntervalMs = v
	}
	if v := getenvInt("BARREL_AUTOSAVE_INTERVAL_SEC"); v != 0 {
		c.Barrel.AutosaveIntervalSec = v
	}
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getenvInt(key string) int {
	v := getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
