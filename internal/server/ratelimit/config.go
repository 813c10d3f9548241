package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (a trailing "/" makes it a prefix)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window (0 means unlimited)
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// match reports whether this entry covers the request and whether the hit
// was exact rather than by prefix.
func (e *EndpointConfig) match(path, method string) (hit, exact bool) {
	if e.Method != method {
		return false, false
	}
	if e.Path == path {
		return true, true
	}
	if strings.HasSuffix(e.Path, "/") && strings.HasPrefix(path, e.Path) {
		return true, false
	}
	return false, false
}

// Match resolves the tier entry for a request, or nil when the default
// limit applies. Exact entries beat prefix entries, and among prefix hits
// the longest pattern wins. The health check is always unlimited.
func (c *Config) Match(path, method string) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return &EndpointConfig{}
	}

	var best *EndpointConfig
	for i := range c.EndpointConfigs {
		e := &c.EndpointConfigs[i]
		hit, exact := e.match(path, method)
		if !hit {
			continue
		}
		if exact {
			return e
		}
		if best == nil || len(e.Path) > len(best.Path) {
			best = e
		}
	}
	return best
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	enabled := getEnvBool("RATE_LIMIT_ENABLED", true)
	if !enabled {
		return &Config{
			Enabled: false,
		}
	}

	return &Config{
		Enabled:         enabled,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(getEnvString("RATE_LIMIT_WHITELIST", "")),
		Blacklist:       parseIPList(getEnvString("RATE_LIMIT_BLACKLIST", "")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: abuse-prone operations. Each submission fans out into an
		// LLM scoring run, the posting assistance endpoints call the model
		// inline, and the auth endpoints invite credential stuffing.
		{Path: "/applications", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/auth/register", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},
		{Path: "/auth/login", Method: "POST", Limit: 20, Window: time.Minute, Burst: 10},
		{Path: "/jobs/parse-skills", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/jobs/parse-requirements", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/jobs/enhance-description", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},

		// Tier 2: write operations (moderate limits)
		{Path: "/jobs", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/jobs/", Method: "PUT", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/jobs/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/applications/", Method: "PATCH", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/student-profiles/", Method: "PATCH", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/companies/", Method: "PATCH", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/profiles/", Method: "PATCH", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/workflows", Method: "PATCH", Limit: 100, Window: time.Minute, Burst: 10},

		// Tier 3: read operations - handled by default limit
		// Tier 4: health check (unlimited) - handled by special case in Match
	}
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
