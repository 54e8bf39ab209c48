// Package config loads settings from flags, a YAML file, .env files and
// environment variables into a typed Config.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// expandPaths resolves the file-system settings: the fixture and OFX inputs,
// the SimpleFIN state file and the server TLS directory.
func (c *Config) expandPaths() {
	for _, p := range []*string{
		&c.Source.FixturePath,
		&c.Source.OFXPath,
		&c.SimpleFIN.StatePath,
		&c.Server.TLSDir,
	} {
		*p = ExpandPath(*p)
	}
}

// ExpandPath replaces $VAR and ${VAR} references in path, then a leading ~
// with the home directory. A variable may itself hold a ~ path, as in
// STATE_DIR=~/.plaid-ask. The path is returned unchanged past the
// variables when the home directory is unknown.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}
