package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# finmcp configuration
# Every key can be overridden with an environment variable, e.g.
# FINMCP_DATA_PROVIDER=csv or FINMCP_LOGGING_LEVEL=debug.

[server]
# MCP transport: "stdio" or "http"
transport = "stdio"
# Listen address for the http transport
addr = "127.0.0.1:8080"
shutdown_timeout = "10s"

[data]
# Market data provider: "yahoo", "csv" or "sqlite"
provider = "yahoo"

[data.yahoo]
base_url = "https://query1.finance.yahoo.com"
user_agent = "Mozilla/5.0"
timeout = "15s"
# Client-side rate limit; 0 disables it
requests_per_second = 2.0
burst = 4
max_attempts = 3
retry_delay = "250ms"
# Consecutive failures before requests are short-circuited, and for how long
breaker_failures = 5
breaker_cooldown = "30s"

[data.csv]
# Directory holding <SYMBOL>.csv files (Date,Open,High,Low,Close,Volume)
dir = "%[1]s"

[data.sqlite]
# Bar archive filled by 'finmcp history --save'
path = "%[2]s"

[indicators]
# Indicator backend: "native" or "talib"
backend = "native"

[logging]
# Log level: debug, info, warn, error
level = "info"
# Also write rotated JSON logs to file_path
file = false
file_path = "%[3]s"
max_size = 100
max_backups = 7
max_age = 30

[ui]
# Enable colored CLI output
color_enabled = true
`

// Template returns the commented default config for configDir.
func Template(configDir string) string {
	return fmt.Sprintf(configTemplate,
		filepath.Join(configDir, "data"),
		filepath.Join(configDir, "bars.db"),
		filepath.Join(configDir, "logs", "finmcp.log"))
}

// WriteTemplate writes the default config into configDir and returns its path.
// An existing file is kept unless force is set.
func WriteTemplate(configDir string, force bool) (string, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	path := Path(configDir)

	if _, err := os.Stat(path); err == nil && !force {
		return path, fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return path, fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(Template(configDir)), 0644); err != nil {
		return path, fmt.Errorf("writing config template: %w", err)
	}
	return path, nil
}
