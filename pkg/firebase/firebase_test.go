package firebase

import (
	"context"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wisdom-gateway/pkg/config"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

func TestInitAppRequiresProjectAndCredentials(t *testing.T) {
	_, err := InitApp(context.Background(), config.IdentityConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIREBASE_PROJECT_ID")

	_, err = InitApp(context.Background(), config.IdentityConfig{FirebaseProjectID: "wisdom"})
	require.Error(t, err)

	_, err = InitApp(context.Background(), config.IdentityConfig{FirebaseProjectID: "wisdom", ServiceAccountJSONBase64: "%%%"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base64")
}

func TestSignInIsUnsupported(t *testing.T) {
	_, err := (&Provider{}).SignIn(context.Background(), "a@b.c", "secret")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnsupported))
}

func TestFromRecord(t *testing.T) {
	identity := fromRecord(&auth.UserRecord{UserInfo: &auth.UserInfo{UID: "u1", Email: "ann@wisdom.dev", DisplayName: "Ann"}})
	assert.Equal(t, "u1", identity.UID)
	assert.Equal(t, "ann@wisdom.dev", identity.Email)
	assert.Equal(t, "Ann", identity.DisplayName)

	assert.Empty(t, fromRecord(nil).UID)
	assert.Equal(t, "x", claim(map[string]interface{}{"email": "x"}, "email"))
	assert.Empty(t, claim(map[string]interface{}{"email": 1}, "email"))
}
