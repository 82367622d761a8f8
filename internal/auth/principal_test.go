package auth

import (
	"context"
	"testing"

	"Marketplace/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	user := Principal{SubjectID: "u1", Role: "user"}
	admin := Principal{SubjectID: "a1", Role: "admin"}

	assert.NoError(t, Authorize(user))
	assert.NoError(t, Authorize(admin, "admin"))
	assert.NoError(t, Authorize(user, "user", "admin"))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(Authorize(user, "admin")))
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(Authorize(Principal{}, "user")))
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{SubjectID: "u1", Role: "user"})
	p, ok := PrincipalFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", p.SubjectID)
}
