package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Info()
	assert.Equal(t, Version, info["version"])
	assert.Equal(t, runtime.Version(), info["go_version"])
	assert.Contains(t, info, "commit")
	assert.Contains(t, info, "build_date")
	assert.Contains(t, String(), Version)
}
