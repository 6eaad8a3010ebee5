package credentials

import (
	"context"
	"errors"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type secretClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	AddSecretVersion(ctx context.Context, req *secretmanagerpb.AddSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.SecretVersion, error)
	CreateSecret(ctx context.Context, req *secretmanagerpb.CreateSecretRequest, opts ...gax.CallOption) (*secretmanagerpb.Secret, error)
	Close() error
}

// SecretManager stores each slot as a Google Cloud secret named
// <prefix><slot>; Set adds a new version, creating the secret on first use.
type SecretManager struct {
	client  secretClient
	project string
	prefix  string
}

func NewSecretManager(ctx context.Context, projectID, prefix string) (*SecretManager, error) {
	if projectID == "" {
		return nil, errors.New("GCP project ID is required for Secret Manager")
	}
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &SecretManager{client: client, project: projectID, prefix: prefix}, nil
}

func (s *SecretManager) Get(ctx context.Context, slot string) (string, bool, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.secretName(slot) + "/versions/latest",
	})
	if status.Code(err) == codes.NotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("access secret %s: %w", slot, err)
	}
	data := string(resp.GetPayload().GetData())
	return data, data != "", nil
}

func (s *SecretManager) Set(ctx context.Context, slot, secret string) error {
	if slot == "" {
		return ErrEmptySlot
	}
	err := s.addVersion(ctx, slot, secret)
	if status.Code(err) != codes.NotFound {
		return err
	}

	_, err = s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   "projects/" + s.project,
		SecretId: s.prefix + slot,
		Secret: &secretmanagerpb.Secret{
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create secret %s: %w", slot, err)
	}
	return s.addVersion(ctx, slot, secret)
}

func (s *SecretManager) Close() error {
	return s.client.Close()
}

func (s *SecretManager) addVersion(ctx context.Context, slot, secret string) error {
	_, err := s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  s.secretName(slot),
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(secret)},
	})
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("add secret version %s: %w", slot, err)
	}
	return err
}

func (s *SecretManager) secretName(slot string) string {
	return fmt.Sprintf("projects/%s/secrets/%s%s", s.project, s.prefix, slot)
}
