package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragsense/ragsense/internal/adapters/driven/auth"
	"github.com/ragsense/ragsense/internal/core/domain"
)

// execute runs the root command with args and returns its output
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Setenv("RUN_MODE", "all")
	t.Setenv("SOURCES_FILE", "")
	t.Setenv("ES_JIRA_INDEX", "jira")
	t.Setenv("ES_WIKI_INDEX", "wiki")
	t.Setenv("ES_FILES_INDEX", "files")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		jsonOutput = false
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := execute(t, "version")

	assert.NoError(t, err)
	assert.Contains(t, out, "ragsense version test-version-1.0.0")
}

func TestSourcesCmd_ListsBuiltInCatalog(t *testing.T) {
	out, err := execute(t, "sources")

	require.NoError(t, err)
	assert.Contains(t, out, "jira=jira wiki=wiki files=files")
	assert.Contains(t, out, "Confluence")
	assert.Contains(t, out, "Network Drive")
}

func TestSourcesCmd_JSON(t *testing.T) {
	out, err := execute(t, "sources", "--json")
	require.NoError(t, err)

	var sources []domain.SourceInfo
	require.NoError(t, json.Unmarshal([]byte(out), &sources))
	require.Len(t, sources, 3)
	assert.Equal(t, "jira", sources[0].Name)
	assert.Equal(t, domain.SourceTypeJira, sources[0].Type)
}

func TestServeCmd_RejectsUnknownMode(t *testing.T) {
	_, err := execute(t, "serve", "batch")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestReindexCmd_RequiresTarget(t *testing.T) {
	_, err := execute(t, "reindex")
	assert.Error(t, err)
}

func TestReindexCmd_Flags(t *testing.T) {
	for _, name := range []string{"collection", "all", "batch-size", "scroll-ttl", "enqueue"} {
		assert.NotNil(t, reindexCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "c", reindexCmd.Flags().Lookup("collection").Shorthand)
}

func TestHashKeyCmd_PrintsBcryptHash(t *testing.T) {
	out, err := execute(t, "hash-key", "operator-secret")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(hash, "$2a$"), "expected a bcrypt hash, got %q", hash)
	assert.True(t, auth.NewAdapter("").VerifyKey("operator-secret", hash))
	assert.False(t, auth.NewAdapter("").VerifyKey("other-secret", hash))
}

func TestTokenCmd_RequiresAuthConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("OPERATOR_KEY_HASH", "")

	_, err := execute(t, "token")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth not configured")
}

func TestTokenCmd_MintsOperatorToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("OPERATOR_KEY_HASH", "$2a$10$unused")

	out, err := execute(t, "token", "--subject", "ci")
	require.NoError(t, err)

	claims, err := auth.NewAdapter("test-secret").ParseToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ci", claims.Subject)
	assert.Equal(t, domain.RoleOperator, claims.Role)
}
