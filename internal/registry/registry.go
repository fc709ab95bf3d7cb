// Package registry holds the static catalog of supported brokers. The
// catalog is built once at startup and is read-only afterwards.
package registry

import (
	"github.com/tradejournal/brokergate/internal/models"
)

// Registry is the broker catalog. All lookups are side-effect free.
type Registry struct {
	brokers []models.BrokerDescriptor
	byID    map[string]models.BrokerDescriptor
}

// defaultEndpoints returns the standard upstream path templates shared by
// all brokers. "{broker}" is substituted with the broker ID at call time.
func defaultEndpoints() models.BrokerEndpoints {
	return models.BrokerEndpoints{
		Connect:    "/api/brokers/{broker}/connect",
		OAuthInit:  "/api/brokers/{broker}/oauth/init",
		Disconnect: "/api/brokers/{broker}/disconnect",
		Orders:     "/api/brokers/{broker}/orders",
		Positions:  "/api/brokers/{broker}/positions",
		LiveData:   "/api/brokers/{broker}/live",
	}
}

// New builds the registry with the built-in broker catalog
func New() *Registry {
	brokers := []models.BrokerDescriptor{
		{
			ID:       "zerodha",
			Name:     "Zerodha Kite",
			AuthType: models.AuthCredentials,
			Features: models.BrokerFeatures{
				LiveData:       true,
				OrderPlacement: true,
				PortfolioSync:  true,
				OptionsTrading: true,
			},
			Endpoints: defaultEndpoints(),
		},
		{
			ID:       "upstox",
			Name:     "Upstox Pro",
			AuthType: models.AuthOAuth,
			Features: models.BrokerFeatures{
				LiveData:       true,
				OrderPlacement: true,
				PortfolioSync:  true,
				OptionsTrading: true,
			},
			Endpoints: defaultEndpoints(),
		},
		{
			ID:       "angel_one",
			Name:     "Angel One",
			AuthType: models.AuthCredentials,
			Features: models.BrokerFeatures{
				LiveData:       true,
				OrderPlacement: true,
				PortfolioSync:  true,
				OptionsTrading: true,
			},
			Endpoints: defaultEndpoints(),
		},
		{
			ID:       "fyers",
			Name:     "Fyers",
			AuthType: models.AuthOAuth,
			Features: models.BrokerFeatures{
				LiveData:       true,
				OrderPlacement: true,
				PortfolioSync:  true,
				OptionsTrading: true,
			},
			Endpoints: defaultEndpoints(),
		},
		{
			ID:       "delta_exchange",
			Name:     "Delta Exchange",
			AuthType: models.AuthAPIKey,
			Features: models.BrokerFeatures{
				LiveData:       true,
				OrderPlacement: true,
				PortfolioSync:  false,
				OptionsTrading: true,
			},
			Endpoints: defaultEndpoints(),
		},
		{
			ID:       "binance",
			Name:     "Binance",
			AuthType: models.AuthAPIKey,
			Features: models.BrokerFeatures{
				LiveData:       true,
				OrderPlacement: true,
				PortfolioSync:  false,
				OptionsTrading: false,
			},
			Endpoints: defaultEndpoints(),
		},
		{
			ID:       "alpaca",
			Name:     "Alpaca",
			AuthType: models.AuthAPIKey,
			Features: models.BrokerFeatures{
				LiveData:       true,
				OrderPlacement: true,
				PortfolioSync:  true,
				OptionsTrading: false,
			},
			Endpoints: defaultEndpoints(),
		},
	}

	return NewFromDescriptors(brokers...)
}

// NewFromDescriptors builds a registry over an explicit descriptor list
func NewFromDescriptors(brokers ...models.BrokerDescriptor) *Registry {
	byID := make(map[string]models.BrokerDescriptor, len(brokers))
	for _, b := range brokers {
		byID[b.ID] = b
	}

	return &Registry{brokers: brokers, byID: byID}
}

// List returns all broker descriptors in catalog order
func (r *Registry) List() []models.BrokerDescriptor {
	out := make([]models.BrokerDescriptor, len(r.brokers))
	copy(out, r.brokers)
	return out
}

// Find returns the descriptor for the given broker ID
func (r *Registry) Find(id string) (models.BrokerDescriptor, bool) {
	b, ok := r.byID[id]
	return b, ok
}
