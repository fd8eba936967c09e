package neoql_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/neoql"
)

func TestConfig_URI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  neoql.Config
		want string
	}{
		{"defaults", *neoql.DefaultConfig(), "bolt://localhost:7687"},
		{"secure scheme", neoql.Config{Scheme: "neo4j+s", Host: "db.example.com", Port: 7687}, "neo4j+s://db.example.com:7687"},
		{"host only", neoql.Config{Scheme: "bolt", Host: "db"}, "bolt://db"},
		{"ipv6", neoql.Config{Scheme: "bolt", Host: "::1", Port: 7687}, "bolt://[::1]:7687"},
		{"override", neoql.Config{Host: "ignored", URIOverride: "neo4j://cluster:7687"}, "neo4j://cluster:7687"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.URI())
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	cfg := (&neoql.Config{Host: "db", Username: "neo4j"}).WithDefaults()

	want := &neoql.Config{
		Driver:   neoql.DriverNeo4j,
		Scheme:   neoql.DefaultScheme,
		Host:     "db",
		Port:     neoql.DefaultPort,
		Username: "neo4j",
	}

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("WithDefaults() mismatch (-want +got):\n%s", diff)
	}

	assert.False(t, cfg.Secured())
}

func TestLoadConfig_WalksUp(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	data := []byte("name: default\nhost: graph\nport: 7688\nusername: neo4j\npassword: secret\ndatabase: movies\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".neoql.yaml"), data, 0o600))

	cfg, err := neoql.LoadConfig(nested)
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Name)
	assert.Equal(t, "bolt://graph:7688", cfg.URI())
	assert.Equal(t, "movies", cfg.Database)
	assert.Equal(t, neoql.DriverNeo4j, cfg.Driver)
	assert.True(t, cfg.Secured())
}

func TestLoadConfig_NotFound(t *testing.T) {
	t.Parallel()

	// A fresh temp dir may still sit below a directory holding a config, so
	// only the sentinel shape is checked when the walk finds nothing.
	_, err := neoql.LoadConfig(t.TempDir())
	if err != nil {
		require.ErrorIs(t, err, neoql.ErrConfigNotFound)
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".neoql.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not, a, number]\n"), 0o600))

	_, err := neoql.LoadConfigFile(path)
	require.Error(t, err)
}

type stubClient struct{ neoql.Client }

func (stubClient) Name() string { return "stub" }
func (stubClient) Close(context.Context) error { return nil }

func TestRegisterClient(t *testing.T) {
	t.Parallel()

	neoql.RegisterClient("stub", func(cfg *neoql.Config) (neoql.Client, error) {
		assert.Equal(t, neoql.DefaultHost, cfg.Host)
		return stubClient{}, nil
	})

	assert.Contains(t, neoql.RegisteredClients(), "stub")

	client, err := neoql.NewClient(&neoql.Config{Driver: "stub"})
	require.NoError(t, err)
	assert.Equal(t, "stub", client.Name())

	_, err = neoql.NewClient(&neoql.Config{Driver: "nope"})
	require.ErrorIs(t, err, neoql.ErrUnknownDriver)
}
