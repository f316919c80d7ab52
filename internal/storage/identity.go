package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcoot/scopa-go/internal/dependencies/random"
	"github.com/mcoot/scopa-go/internal/model"
)

// IdentityLength is the number of characters in a generated identity
const IdentityLength = random.TokenLength

// EnsureIdentity returns the stored identity, generating and saving one on first use
func EnsureIdentity(ctx context.Context, store Storage, rnd random.Random) (model.PlayerIdentity, error) {
	id, err := store.GetPlayerIdentity(ctx)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, model.ErrIdentityNotFound) {
		return "", err
	}

	token, err := rnd.Token(IdentityLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate identity: %w", err)
	}
	id = model.PlayerIdentity(token)
	if err := store.SavePlayerIdentity(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// DisplayName is the stored username, falling back to the identity
func DisplayName(ctx context.Context, store Storage, id model.PlayerIdentity) string {
	name, err := store.GetUsername(ctx)
	if err != nil || name == "" {
		return string(id)
	}
	return name
}
