package service

import (
	"context"
	"fmt"
	"strings"

	"campusportal/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

type SecretManagerService interface {
	// GetSecret returns the latest version of the named secret.
	GetSecret(ctx context.Context, name string) (string, error)
	Close() error
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretManagerService(ctx context.Context, cfg *config.Config) (SecretManagerService, error) {
	projectID := cfg.GCPProjectID
	if projectID == "" {
		return nil, fmt.Errorf("GCP Project ID is not set for the current environment")
	}

	// Secret Manager has no emulator; local development needs a real project.
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &secretManagerService{
		client:    client,
		projectID: projectID,
	}, nil
}

func (s *secretManagerService) GetSecret(ctx context.Context, name string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, name)

	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	}

	result, err := s.client.AccessSecretVersion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}

	return string(result.Payload.Data), nil
}

func (s *secretManagerService) Close() error {
	return s.client.Close()
}

// SecretGetter is the part of SecretManagerService the key resolver needs.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// ResolveJWTKey returns the token verification key. JWT_SECRET_NAME takes
// precedence over JWT_SECRET; secrets may be nil when no name is configured.
func ResolveJWTKey(ctx context.Context, cfg *config.Config, secrets SecretGetter) (string, error) {
	if cfg.JWTSecretName != "" {
		if secrets == nil {
			return "", fmt.Errorf("JWT_SECRET_NAME is set but Secret Manager is not available")
		}
		key, err := secrets.GetSecret(ctx, cfg.JWTSecretName)
		if err != nil {
			return "", fmt.Errorf("resolving JWT key: %w", err)
		}
		return strings.TrimSpace(key), nil
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return "", fmt.Errorf("neither JWT_SECRET nor JWT_SECRET_NAME is set")
	}
	return cfg.JWTSecret, nil
}
