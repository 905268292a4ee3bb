package setmatch

import "setmatch/pkg/setmatch/matching"

type Config struct {
	DBPath      string
	SampleLimit int
	Logger      Logger
	Catalog     Catalog
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

// WithSampleLimit bounds how many catalog rows the similarity stage scans.
func WithSampleLimit(limit int) Option {
	return func(c *Config) {
		c.SampleLimit = limit
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithCatalog injects a catalog, bypassing the default SQLite store. Used
// by callers that manage their own storage and by tests.
func WithCatalog(catalog Catalog) Option {
	return func(c *Config) {
		c.Catalog = catalog
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:      "setmatch.sqlite3",
		SampleLimit: matching.DefaultSampleSize,
	}
}
