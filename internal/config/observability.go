package config

// OtelConfig holds OTLP trace export configuration.
//
// Tracing is disabled unless Endpoint is set. See
// internal/observability for exporter setup.
type OtelConfig struct {
	// Endpoint is the OTLP/HTTP collector endpoint, host:port.
	// Empty disables trace export.
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	// ServiceName tags exported spans (default: skein).
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	// Environment is the deployment environment tag (default: dev).
	Environment string `mapstructure:"environment" json:"environment"`
}

// Enabled reports whether trace export is configured.
func (c OtelConfig) Enabled() bool {
	return c.Endpoint != ""
}
