package testutil

import (
	"embed"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/config"
)

//go:embed fixtures/*
var fixturesFS embed.FS

// LoadFixture loads a fixture file by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// LoadConfigFixture parses a TOML config fixture. Parse also validates, so
// invalid fixtures return an error.
func LoadConfigFixture(name string) (*config.Config, error) {
	data, err := LoadFixture(name)
	if err != nil {
		return nil, err
	}
	return config.Parse(string(data))
}

// ValidConfig returns the fast-polling config used by process tests.
func ValidConfig() (*config.Config, error) {
	return LoadConfigFixture("valid.toml")
}

// FakeDaemon returns the stand-in daemon script.
func FakeDaemon() []byte {
	data, _ := LoadFixture(config.DefaultDaemonExecutable)
	return data
}

// FakeClient returns the stand-in client script.
func FakeClient() []byte {
	data, _ := LoadFixture(config.DefaultClientExecutable)
	return data
}
