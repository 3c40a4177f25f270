package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"github.com/couchcryptid/db-bootstrap-api/internal/model"
)

// SecretsManagerAPI is the part of the Secrets Manager client the provider uses.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ClientOptions configures the Secrets Manager client.
type ClientOptions struct {
	Region string
	// Endpoint overrides the service endpoint, e.g. for LocalStack.
	Endpoint string
	// Static credentials are used when both are set; otherwise the default chain applies.
	AccessKeyID     string
	SecretAccessKey string
}

// NewSecretsManagerClient builds a client. No request is sent.
func NewSecretsManagerClient(ctx context.Context, opts ClientOptions) (*secretsmanager.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*secretsmanager.Options)
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		})
	}
	return secretsmanager.NewFromConfig(awsCfg, clientOpts...), nil
}

// SecretsManagerProvider fetches a JSON secret holding the DB_* keys.
type SecretsManagerProvider struct {
	client     SecretsManagerAPI
	secretName string
}

// NewSecretsManagerProvider returns a provider reading secretName through client.
func NewSecretsManagerProvider(client SecretsManagerAPI, secretName string) *SecretsManagerProvider {
	return &SecretsManagerProvider{client: client, secretName: secretName}
}

// Source implements Provider.
func (p *SecretsManagerProvider) Source() string { return SourceSecretsManager }

// Resolve makes exactly one GetSecretValue call. Failures are not retried.
func (p *SecretsManagerProvider) Resolve(ctx context.Context) (model.ConnectionConfig, error) {
	if p.secretName == "" {
		return model.ConnectionConfig{}, &ConfigError{Source: SourceSecretsManager, Err: errors.New("secret name is empty")}
	}

	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.secretName),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException" {
			return model.ConnectionConfig{}, &ConfigError{Source: SourceSecretsManager, Err: fmt.Errorf("secret %q not found: %w", p.secretName, err)}
		}
		return model.ConnectionConfig{}, &ConfigError{Source: SourceSecretsManager, Err: fmt.Errorf("get secret %q: %w", p.secretName, err)}
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return model.ConnectionConfig{}, &ConfigError{Source: SourceSecretsManager, Err: fmt.Errorf("secret %q has no string value", p.secretName)}
	}

	fields, err := parseSecret(*out.SecretString)
	if err != nil {
		return model.ConnectionConfig{}, &ConfigError{Source: SourceSecretsManager, Err: err}
	}
	return assemble(SourceSecretsManager, func(key string) string { return fields[key] })
}

// parseSecret decodes a flat JSON object and returns the DB_* keys as
// strings. Numbers keep their literal form so DB_PORT may be 5432 or "5432".
// Other keys are ignored whatever their type.
func parseSecret(raw string) (map[string]string, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("parse secret payload: %w", err)
	}
	if obj == nil {
		return nil, errors.New("parse secret payload: not a JSON object")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("parse secret payload: trailing data after JSON object")
	}

	fields := make(map[string]string, len(secretKeys))
	for _, k := range secretKeys {
		switch val := obj[k].(type) {
		case string:
			fields[k] = val
		case json.Number:
			fields[k] = val.String()
		case nil:
			fields[k] = ""
		default:
			return nil, fmt.Errorf("parse secret payload: key %s: unsupported value type %T", k, val)
		}
	}
	return fields, nil
}
