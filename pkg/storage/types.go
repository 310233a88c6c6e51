package storage

import "time"

// Fixture describes a whole network, as imported by ImportFixture.
type Fixture struct {
	Network        FixtureNetwork `yaml:"network"`
	NetworkPlugins []string       `yaml:"network_plugins"`
	Sites          []FixtureSite  `yaml:"sites"`
}

type FixtureNetwork struct {
	ID      int64  `yaml:"id"`
	Domain  string `yaml:"domain"`
	Path    string `yaml:"path"`
	Primary int64  `yaml:"primary"`
}

type FixtureSite struct {
	ID         int64     `yaml:"id"`
	Domain     string    `yaml:"domain"`
	Path       string    `yaml:"path"`
	Registered time.Time `yaml:"registered"`
	// Public defaults to true when omitted.
	Public   *bool `yaml:"public"`
	Archived bool  `yaml:"archived"`
	Mature   bool  `yaml:"mature"`
	Spam     bool  `yaml:"spam"`
	Deleted  bool  `yaml:"deleted"`

	Plugins  []string  `yaml:"plugins"`
	Licenses []License `yaml:"licenses"`
}

// ImportSummary counts what an import wrote.
type ImportSummary struct {
	NetworkID   int64
	Sites       int
	Activations int
	Licenses    int
}
