package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuild(t *testing.T, version, commit, built string) {
	t.Helper()
	oldV, oldC, oldB := Version, GitCommit, BuildTime
	Version, GitCommit, BuildTime = version, commit, built
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldV, oldC, oldB })
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "v0.3.0", Canonical("0.3.0"))
	assert.Equal(t, "v0.3.0", Canonical("v0.3"))
	assert.Equal(t, "v1.2.3-rc.1", Canonical(" 1.2.3-rc.1 "))
	assert.Empty(t, Canonical("latest"))
}

func TestGetCurrentVersion(t *testing.T) {
	assert.Equal(t, DevVersion, GetCurrentVersion("dev"))
	assert.Equal(t, DevVersion, GetCurrentVersion("demo"))
	assert.Equal(t, Version, GetCurrentVersion("prod"))
}

func TestString(t *testing.T) {
	withBuild(t, "0.3.0", "0123456789abcdef", "2026-10-01T00:00:00Z")
	assert.Equal(t, "v0.3.0-01234567", String())
	assert.Equal(t, "Version=0.3.0 Commit=01234567 BuildTime=2026-10-01T00:00:00Z", StringFull())
}

func TestString_Unknown(t *testing.T) {
	withBuild(t, "nightly", "unknown", "unknown")
	assert.Equal(t, "nightly", String())
	assert.Equal(t, "Version=nightly", StringFull())
}
