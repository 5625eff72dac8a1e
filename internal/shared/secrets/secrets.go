// Package secrets resolves the outbound API credential at startup.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"happenstance-backend/internal/shared/config"
	"happenstance-backend/internal/shared/telemetry"
)

// SecretGetter is the subset of the Secrets Manager client used here.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// NewSecretsManager builds a Secrets Manager client from the default AWS
// credential chain.
func NewSecretsManager(ctx context.Context, region string) (*secretsmanager.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if strings.TrimSpace(region) != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return secretsmanager.NewFromConfig(awsCfg), nil
}

// ResolveAPIKey returns the selected provider's configured key, falling back to
// the secret named by APIKeySecretID. Lookup failures are logged and yield an empty key so the
// service still starts and reports a configuration error per request.
func ResolveAPIKey(ctx context.Context, cfg config.Config, getter SecretGetter) string {
	if key := strings.TrimSpace(cfg.APIKey()); key != "" {
		return key
	}
	secretID := strings.TrimSpace(cfg.APIKeySecretID)
	if secretID == "" || getter == nil {
		return ""
	}
	key, err := fetch(ctx, getter, secretID)
	if err != nil {
		telemetry.Error("config.secret_lookup_failed", map[string]any{
			"secret_id": secretID,
			"error":     err.Error(),
		})
		return ""
	}
	return key
}

func fetch(ctx context.Context, getter SecretGetter, secretID string) (string, error) {
	out, err := getter.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretID,
	})
	if err != nil {
		return "", err
	}
	if out == nil || out.SecretString == nil {
		return "", errors.New("secret has no string value")
	}
	key := strings.TrimSpace(*out.SecretString)
	if key == "" {
		return "", errors.New("secret value is empty")
	}
	return key, nil
}
