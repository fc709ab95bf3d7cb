package models

import "time"

// CredentialPayload carries the auth-type-specific secret material for a
// broker. Which fields must be set depends on the broker's AuthType.
type CredentialPayload struct {
	APIKey    string    `json:"apiKey,omitempty"`
	APISecret string    `json:"apiSecret,omitempty"`
	Username  string    `json:"username,omitempty"`
	Password  string    `json:"password,omitempty"`
	TOTP      string    `json:"totp,omitempty"`
	StoredAt  time.Time `json:"storedAt,omitempty"`
}

// MissingFields returns the names of the fields the payload must carry for
// the given auth type but does not. An empty result means the payload
// satisfies the broker's credential shape. OAuth brokers need no secret
// material up front, only the stored marker.
func (p CredentialPayload) MissingFields(auth AuthType) []string {
	var missing []string
	switch auth {
	case AuthAPIKey:
		if p.APIKey == "" {
			missing = append(missing, "apiKey")
		}
		if p.APISecret == "" {
			missing = append(missing, "apiSecret")
		}
	case AuthCredentials:
		if p.Username == "" {
			missing = append(missing, "username")
		}
		if p.Password == "" {
			missing = append(missing, "password")
		}
	}
	return missing
}
