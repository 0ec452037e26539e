package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretSource reads secret payloads by resource name.
type SecretSource interface {
	AccessSecret(ctx context.Context, name string) ([]byte, error)
}

// SecretManagerService is a SecretSource backed by Google Secret Manager.
type SecretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

// NewSecretManagerService connects to Google Secret Manager. Resource names
// without a "projects/" prefix are resolved against projectID.
func NewSecretManagerService(ctx context.Context, projectID string, opts ...option.ClientOption) (*SecretManagerService, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &SecretManagerService{client: client, projectID: projectID}, nil
}

func (s *SecretManagerService) AccessSecret(ctx context.Context, name string) ([]byte, error) {
	resourceName, err := secretVersionName(s.projectID, name)
	if err != nil {
		return nil, err
	}
	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access secret version: %w", err)
	}
	return result.Payload.Data, nil
}

func (s *SecretManagerService) Close() error {
	return s.client.Close()
}

// secretVersionName expands a short secret id ("jwt-secret") or a secret path
// without a version into a full version resource name.
func secretVersionName(projectID, name string) (string, error) {
	if name == "" {
		return "", errors.New("secret name is empty")
	}
	if !strings.HasPrefix(name, "projects/") {
		if projectID == "" {
			return "", fmt.Errorf("GCP project ID is required to resolve secret %q", name)
		}
		name = fmt.Sprintf("projects/%s/secrets/%s", projectID, name)
	}
	if !strings.Contains(name, "/versions/") {
		name += "/versions/latest"
	}
	return name, nil
}

// LoadSigningSecret returns the token signing secret, preferring the secret
// manager resource over the inline value when one is configured.
func LoadSigningSecret(ctx context.Context, source SecretSource, resource, inline string) ([]byte, error) {
	if resource == "" {
		if inline == "" {
			return nil, errors.New("no signing secret configured")
		}
		return []byte(inline), nil
	}
	if source == nil {
		return nil, errors.New("signing secret resource set without a secret source")
	}
	secret, err := source.AccessSecret(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("load signing secret: %w", err)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("signing secret %q is empty", resource)
	}
	return secret, nil
}
