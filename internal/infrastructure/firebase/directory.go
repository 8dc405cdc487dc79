package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"tailorchat/internal/domain/entity"
	"tailorchat/pkg/errors"
)

// Directory resolves participant display data from Firebase Auth user records.
type Directory struct {
	client *auth.Client
}

func NewDirectory(client *auth.Client) *Directory {
	return &Directory{client: client}
}

func (d *Directory) Lookup(ctx context.Context, userID string) (entity.Participant, error) {
	user, err := d.client.GetUser(ctx, userID)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return entity.Participant{}, errors.NotFound("User", err)
		}
		return entity.Participant{}, errors.Internal("Failed to look up user", err)
	}

	p := entity.Participant{
		ID:        user.UID,
		Name:      user.DisplayName,
		AvatarURL: user.PhotoURL,
		Role:      entity.RoleCustomer,
	}
	if p.Name == "" {
		p.Name = user.Email
	}
	if role, ok := user.CustomClaims["role"].(string); ok && role != "" {
		p.Role = role
	}
	return p, nil
}
