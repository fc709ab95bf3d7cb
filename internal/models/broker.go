package models

// AuthType identifies the authentication scheme a broker requires
type AuthType string

const (
	AuthOAuth       AuthType = "oauth"
	AuthAPIKey      AuthType = "api_key"
	AuthCredentials AuthType = "credentials"
)

// BrokerFeatures lists the capabilities a broker integration supports
type BrokerFeatures struct {
	LiveData       bool `json:"liveData"`
	OrderPlacement bool `json:"orderPlacement"`
	PortfolioSync  bool `json:"portfolioSync"`
	OptionsTrading bool `json:"optionsTrading"`
}

// BrokerEndpoints holds the upstream path templates for a broker.
// The "{broker}" placeholder is replaced with the broker ID.
type BrokerEndpoints struct {
	Connect    string `json:"connect"`
	OAuthInit  string `json:"oauthInit"`
	Disconnect string `json:"disconnect"`
	Orders     string `json:"orders"`
	Positions  string `json:"positions"`
	LiveData   string `json:"liveData"`
}

// BrokerDescriptor describes a supported broker. Descriptors are defined
// once at startup and never mutated.
type BrokerDescriptor struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	AuthType  AuthType        `json:"authType"`
	Features  BrokerFeatures  `json:"features"`
	Endpoints BrokerEndpoints `json:"endpoints"`
}
