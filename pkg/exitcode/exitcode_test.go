package exitcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodesAreDistinct(t *testing.T) {
	assert.Equal(t, 0, Success)
	assert.Equal(t, 1, VulnerabilitiesFound)
	assert.Equal(t, 2, ConfigError)
}

func TestForScan(t *testing.T) {
	t.Run("gate armed with zero findings above threshold exits clean", func(t *testing.T) {
		assert.Equal(t, Success, ForScan(true, 0))
	})

	t.Run("gate armed with findings exits 1", func(t *testing.T) {
		assert.Equal(t, VulnerabilitiesFound, ForScan(true, 1))
		assert.Equal(t, VulnerabilitiesFound, ForScan(true, 7))
	})

	t.Run("gate disarmed never fails regardless of findings", func(t *testing.T) {
		assert.Equal(t, Success, ForScan(false, 0))
		assert.Equal(t, Success, ForScan(false, 5))
	})
}

func TestString(t *testing.T) {
	assert.Equal(t, "Success", String(Success))
	assert.Equal(t, "Vulnerabilities found at or above threshold", String(VulnerabilitiesFound))
	assert.Equal(t, "Configuration error", String(ConfigError))
	assert.Equal(t, "Unknown error", String(42))
}
