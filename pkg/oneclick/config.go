package oneclick

import (
	"strings"
	"time"
)

const (
	EnvironmentIntegration = "integration"
	EnvironmentProduction  = "production"

	IntegrationBaseURL = "https://webpay3gint.transbank.cl"
	ProductionBaseURL  = "https://webpay3g.transbank.cl"

	// IntegrationCommerceCode is the public mall code for the integration environment.
	IntegrationCommerceCode = "597055555541"
	IntegrationAPIKey       = "579B532A7440BB0C9079DED94D31EA1615BACEB56610332264630D42D0A36B1C"
)

type Config struct {
	Environment  string        `mapstructure:"environment"`
	BaseURL      string        `mapstructure:"base_url"`
	CommerceCode string        `mapstructure:"commerce_code"`
	APIKey       string        `mapstructure:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// URL resolves the gateway host. An explicit base URL wins over the environment.
func (c Config) URL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}

	if c.Environment == EnvironmentProduction {
		return ProductionBaseURL
	}

	return IntegrationBaseURL
}

func (c Config) credentials() (string, string) {
	if c.CommerceCode == "" && c.Environment != EnvironmentProduction {
		return IntegrationCommerceCode, IntegrationAPIKey
	}

	return c.CommerceCode, c.APIKey
}
