package gcp

import (
	"strings"

	"google.golang.org/api/option"
)

// ClientOptions turns a credentials value into client options. creds may be inline JSON
// or a path to a key file; empty means application default credentials.
func ClientOptions(creds string) []option.ClientOption {
	creds = strings.TrimSpace(creds)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}
