package publisher

import (
	"fmt"
	"strings"

	"substweet/internal/services"
)

// Credentials are the four OAuth 1.0a secrets for one account.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// Complete reports whether every secret is present.
func (c Credentials) Complete() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// ParseCredentialsLine reads "<consumer key> <consumer secret> <access token>
// <access secret>" separated by whitespace.
func ParseCredentialsLine(line string) (Credentials, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Credentials{}, services.Wrap(services.ErrConfiguration, "publisher", "credentials",
			fmt.Sprintf("expected 4 space-separated secrets, got %d", len(fields)), nil)
	}
	return Credentials{
		ConsumerKey:    fields[0],
		ConsumerSecret: fields[1],
		AccessToken:    fields[2],
		AccessSecret:   fields[3],
	}, nil
}
