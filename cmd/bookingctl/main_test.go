package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	logger = slog.New(slog.DiscardHandler)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return strings.TrimSpace(out.String()), err
}

func TestIssueToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	raw, err := run(t, "issue-token", "--user", "42", "--role", "owner", "--ttl", "5")
	require.NoError(t, err)

	tok, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) { return []byte("cli-secret"), nil })
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "OWNER", claims["role"])
}

func TestIssueTokenRejectsUnknownRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	_, err := run(t, "issue-token", "--user", "1", "--role", "customer")
	assert.Error(t, err)
}

func TestSeedAndSweepOnSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "cli.db"))

	_, err := run(t, "migrate")
	require.NoError(t, err)

	id, err := run(t, "add-resource", "--tenant", "1", "--user", "10", "--name", "Dr. Rivera", "--owner")
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	id, err = run(t, "add-service", "--tenant", "1", "--name", "Consultation", "--duration", "45")
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	_, err = run(t, "add-resource", "--tenant", "1", "--user", "10", "--name", "Duplicate", "--owner=false")
	assert.Error(t, err, "a user backs at most one resource")

	_, err = run(t, "sweep-links")
	assert.NoError(t, err)
}
