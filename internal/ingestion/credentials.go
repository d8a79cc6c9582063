package ingestion

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested for the service account
var Scopes = []string{
	sheets.SpreadsheetsReadonlyScope,
	drive.DriveReadonlyScope,
}

// Credentials is a parsed service-account key plus its scopes
type Credentials struct {
	Source string
	Scopes []string
	config *jwt.Config
}

// Client returns an HTTP client authorized with the service account
func (c *Credentials) Client(ctx context.Context) *http.Client {
	return c.config.Client(ctx)
}

// Email returns the service account address
func (c *Credentials) Email() string {
	return c.config.Email
}

// CredentialResolver yields service-account credentials from an inline JSON
// key (the GOOGLE_CREDENTIALS_JSON variable) or from a local key file.
type CredentialResolver struct {
	EnvJSON string
	KeyFile string
}

// NewCredentialResolver creates a new resolver
func NewCredentialResolver(envJSON, keyFile string) *CredentialResolver {
	return &CredentialResolver{
		EnvJSON: envJSON,
		KeyFile: keyFile,
	}
}

// Resolve parses the key material. The inline JSON wins over the key file.
func (r *CredentialResolver) Resolve() (*Credentials, error) {
	var (
		data   []byte
		source string
	)

	if r.EnvJSON != "" {
		log.Printf("Using Google credentials from environment")
		data = []byte(r.EnvJSON)
		source = "env:GOOGLE_CREDENTIALS_JSON"
	} else {
		log.Printf("Using Google credentials from %s", r.KeyFile)
		b, err := os.ReadFile(r.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read credentials file: %w", err)
		}
		data = b
		source = "file:" + r.KeyFile
	}

	conf, err := google.JWTConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	return &Credentials{
		Source: source,
		Scopes: append([]string(nil), Scopes...),
		config: conf,
	}, nil
}
