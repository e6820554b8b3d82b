package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig holds the optional YAML defaults file (--config). After
// the command line is parsed, its values are applied to every flag the
// user did not pass; any flag actually passed keeps its value.
type fileConfig struct {
	Lexicon       string `yaml:"lexicon"`
	BrownClusters string `yaml:"brown_clusters"`
	Word2Vec      string `yaml:"word2vec"`
	Mapping       string `yaml:"mapping"`
	IgnoreTag     string `yaml:"ignore_tag"`
	BeamSize      int    `yaml:"beam_size"`
	Iterations    int    `yaml:"iterations"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}
