package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonFlagsUseStringWireFormat(t *testing.T) {
	raw := []byte(`{"_id":"l1","isPrivate":"false","isPremiumAccess":"true","isFeatured":true,"status":"pending","postedAt":"2024-01-03T10:00:00.000Z"}`)

	var lesson Lesson
	require.NoError(t, json.Unmarshal(raw, &lesson))
	assert.False(t, bool(lesson.IsPrivate))
	assert.True(t, bool(lesson.IsPremiumAccess))
	assert.True(t, bool(lesson.IsFeatured))
	assert.Equal(t, time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC), lesson.PostedAt.Time)

	out, err := json.Marshal(FeaturedPatch{IsFeatured: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"isFeatured":"true"}`, string(out))
}

func TestFlagRejectsGarbage(t *testing.T) {
	var f Flag
	assert.Error(t, json.Unmarshal([]byte(`"yes"`), &f))
	require.NoError(t, json.Unmarshal([]byte(`null`), &f))
	assert.False(t, bool(f))
}

func TestUserToleratesMissingFields(t *testing.T) {
	var user User
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"u1","email":"a@b.c","isPremium":"true","createdAt":""}`), &user))
	assert.True(t, bool(user.IsPremium))
	assert.True(t, user.CreatedAt.IsZero())
	assert.Equal(t, RoleUser, user.Role.Normalize())
}

func TestTimestampEpochMillis(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`1704067200000`), &ts))
	assert.Equal(t, 2024, ts.Year())
}

func TestRoleToggle(t *testing.T) {
	assert.Equal(t, RoleAdmin, RoleUser.Toggle())
	assert.Equal(t, RoleUser, RoleAdmin.Toggle())
}
