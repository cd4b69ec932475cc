package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access write endpoints.
	ApiKey string `mapstructure:"api_key" default:""`
	// BodyLimitMB caps the accepted request body size in megabytes.
	// Bulk CSV uploads can be large, so the default is generous.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"64"`
}

// BodyLimit returns the request body limit in bytes for the Fiber config.
func (c Config) BodyLimit() int {
	mb := c.BodyLimitMB
	if mb <= 0 {
		mb = 64
	}
	return mb * 1024 * 1024
}
