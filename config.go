package neoql

import (
	"net"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the .neoql.yaml configuration file.
type Config struct {
	// Name identifies the connection in logs.
	Name string `yaml:"name,omitempty"`

	// Driver selects the registered client factory. Defaults to "neo4j".
	Driver string `yaml:"driver,omitempty"`

	Scheme   string `yaml:"scheme,omitempty"`
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// Database names the target database on servers hosting several.
	Database string `yaml:"database,omitempty"`

	// URIOverride replaces the URI built from scheme, host and port.
	URIOverride string `yaml:"uri,omitempty"`
}

// DefaultConfig returns a Config pointing at a local bolt server.
func DefaultConfig() *Config {
	return &Config{
		Driver: DriverNeo4j,
		Scheme: DefaultScheme,
		Host:   DefaultHost,
		Port:   DefaultPort,
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c *Config) WithDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}

	out := *c
	def := DefaultConfig()

	if out.Driver == "" {
		out.Driver = def.Driver
	}

	if out.Scheme == "" {
		out.Scheme = def.Scheme
	}

	if out.Host == "" {
		out.Host = def.Host
	}

	if out.Port == 0 {
		out.Port = def.Port
	}

	return &out
}

// URI returns the connection URI, e.g. "bolt://localhost:7687".
func (c *Config) URI() string {
	if c.URIOverride != "" {
		return c.URIOverride
	}

	var uri string
	if c.Scheme != "" {
		uri = c.Scheme + "://"
	}

	switch {
	case c.Host != "" && c.Port != 0:
		uri += net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	case c.Host != "":
		uri += c.Host
	}

	return uri
}

// Secured reports whether credentials are configured.
func (c *Config) Secured() bool {
	return c.Username != "" && c.Password != ""
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".neoql.yaml", ".neoql.yml", "neoql.yaml", "neoql.yml"}

// LoadConfig finds and loads the nearest .neoql.yaml walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path. Unset fields take
// their defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	return cfg.WithDefaults(), nil
}
