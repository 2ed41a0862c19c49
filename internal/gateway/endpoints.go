package gateway

import "strings"

// Endpoints are the registry URLs used by the repositories
type Endpoints struct {
	Products       string
	Regions        string
	Municipalities string
	PriceHistory   string
}

// EndpointsFor derives every endpoint from the registry base URL
func EndpointsFor(baseURL string) Endpoints {
	base := strings.TrimRight(baseURL, "/")
	return Endpoints{
		Products:       base + "/produtos",
		Regions:        base + "/regioes",
		Municipalities: base + "/municipios",
		PriceHistory:   base + "/precos/historico",
	}
}
