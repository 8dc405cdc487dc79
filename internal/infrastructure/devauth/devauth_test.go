package devauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailorchat/internal/domain/entity"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	token, err := issuer.Issue("tailor_1", entity.RoleTailor, "Ayu")
	require.NoError(t, err)

	identity, err := issuer.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "tailor_1", identity.UserID)
	assert.Equal(t, entity.RoleTailor, identity.Role)
	assert.Equal(t, "Ayu", identity.Name)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	token, err := NewIssuer("other", time.Hour).Issue("u1", "", "")
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Hour).Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := issuer.Issue("u1", "", "")
	require.NoError(t, err)

	_, err = issuer.Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestDirectoryFallsBackToID(t *testing.T) {
	dir := NewDirectory()
	dir.Register(entity.Participant{ID: "t1", Name: "Ayu", Role: entity.RoleTailor})

	p, err := dir.Lookup(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Ayu", p.Name)

	p, err = dir.Lookup(context.Background(), "u9")
	require.NoError(t, err)
	assert.Equal(t, "u9", p.Name)
	assert.Equal(t, entity.RoleCustomer, p.Role)
}
