package failure

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError_MatchesSentinelThroughWrapping(t *testing.T) {
	err := fmt.Errorf("resolve: %w", Config(UnknownModule, "fmt"))

	assert.True(t, errors.Is(err, ErrConfig))
	assert.False(t, errors.Is(err, ErrIO))

	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, UnknownModule, cfgErr.Kind)
	assert.Equal(t, `unknown module "fmt"`, cfgErr.Error())
}

func TestConfigf_IncludesDetail(t *testing.T) {
	err := Configf(DuplicateModule, "app.core", "declared by %s and %s", "a.cppm", "b.cppm")

	assert.Equal(t, `duplicate module "app.core": declared by a.cppm and b.cppm`, err.Error())
}

func TestIOError_UnwrapsCause(t *testing.T) {
	err := IO("src/main.cpp", os.ErrNotExist)

	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "src/main.cpp")
}
