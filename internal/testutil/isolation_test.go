package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTestName(t *testing.T) {
	assert.Equal(t, "testgateway_concurrent_likes", SanitizeTestName("TestGateway/Concurrent likes"))
	assert.Equal(t, "a_b", SanitizeTestName("a-$_b"))
	assert.Len(t, SanitizeTestName(strings.Repeat("x", 80)), 41)
}

func TestNewSQLiteClient(t *testing.T) {
	client := NewSQLiteClient(t)
	author := SeedUser(t, client, "author")
	post := SeedPost(t, client, author, "hello")

	var owner string
	require.NoError(t, client.DB().Get(&owner, client.DB().Rebind(`SELECT owner_user_id FROM posts WHERE id = ?`), post))
	assert.Equal(t, author.String(), owner)
}
