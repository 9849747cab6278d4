package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/chashlab/hashring"
)

// config describes a benchmark scenario.
type config struct {
	Hash        string `yaml:"hash"`
	Servers     int    `yaml:"servers"`
	Objects     int    `yaml:"objects"`
	Replicas    []int  `yaml:"replicas"`
	Parallelism int    `yaml:"parallelism"`
}

func loadConfig(path string) (cfg config, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// merge returns copy of c with zero fields taken from x.
func (c config) merge(x config) config {
	if c.Hash == "" {
		c.Hash = x.Hash
	}
	if c.Servers == 0 {
		c.Servers = x.Servers
	}
	if c.Objects == 0 {
		c.Objects = x.Objects
	}
	if len(c.Replicas) == 0 {
		c.Replicas = x.Replicas
	}
	if c.Parallelism == 0 {
		c.Parallelism = x.Parallelism
	}
	return c
}

func (c config) validate() error {
	if _, err := hashring.LookupHash(c.Hash); err != nil {
		return err
	}
	switch {
	case c.Servers < 2:
		return fmt.Errorf("at least two servers are needed; got %d", c.Servers)
	case c.Objects <= 0:
		return fmt.Errorf("number of objects must be positive; got %d", c.Objects)
	case c.Parallelism <= 0:
		return fmt.Errorf("parallelism must be positive; got %d", c.Parallelism)
	case len(c.Replicas) == 0:
		return fmt.Errorf("no replica counts given")
	}
	for _, r := range c.Replicas {
		if r <= 0 {
			return fmt.Errorf("replica count must be positive; got %d", r)
		}
	}
	return nil
}
