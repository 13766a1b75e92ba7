package cli

import (
	"bytes"
	goruntime "runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func runVersion(t *testing.T, args ...string) string {
	t.Helper()
	originalVersion := version
	version = "test-version-1.0.0"
	t.Cleanup(func() {
		version = originalVersion
		versionShort = false
		rootCmd.SetArgs(nil)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs(append([]string{"version"}, args...))

	assert.NoError(t, rootCmd.Execute())
	return buf.String()
}

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
	assert.Equal(t, "Print the kbsync version", versionCmd.Short)
}

func TestVersionCmd_PrintsBuildInfo(t *testing.T) {
	out := runVersion(t)

	assert.Contains(t, out, "kbsync version test-version-1.0.0")
	assert.Contains(t, out, goruntime.Version())
	assert.Contains(t, out, goruntime.GOOS+"/"+goruntime.GOARCH)
}

func TestVersionCmd_Short(t *testing.T) {
	out := runVersion(t, "--short")

	assert.Equal(t, "test-version-1.0.0\n", out)
}
