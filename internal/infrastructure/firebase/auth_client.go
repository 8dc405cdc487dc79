package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"tailorchat/internal/domain/service"
)

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// Verify checks a Firebase ID token. The marketplace stores the account role as a
// custom claim.
func (f *FirebaseAuthClient) Verify(ctx context.Context, token string) (*service.Identity, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}

	identity := &service.Identity{UserID: result.UID}
	if role, ok := result.Claims["role"].(string); ok {
		identity.Role = role
	}
	if name, ok := result.Claims["name"].(string); ok {
		identity.Name = name
	}
	return identity, nil
}
