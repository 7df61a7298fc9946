package config

import (
	"os"
	"testing"
)

const dsnEnvVar = "POSTGRES_TEST_DSN"

// PostgresTestDSN returns the DSN of the test database or skips the test if none is configured.
func PostgresTestDSN(t testing.TB) string {
	t.Helper()

	dsn := os.Getenv(dsnEnvVar)
	if dsn == "" {
		t.Skipf("%s is not set", dsnEnvVar)
	}

	return dsn
}
