package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hrattrition/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, watch bool) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hr.csv")
	require.NoError(t, os.WriteFile(path, []byte("직원ID,퇴직여부\n1,Yes\n2,No\n"), 0o644))
	return &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		API:    config.APIConfig{Port: "8081"},
		Data:   config.DataConfig{File: path, Watch: watch},
		Font:   config.FontConfig{Enabled: false},
		Log:    config.LogConfig{Level: "DEBUG"},
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	c, err := New(testConfig(t, false))
	require.NoError(t, err)
	require.NotNil(t, c.Dashboard)

	c.Warm(context.Background())
	assert.Equal(t, 1, c.Cache.Len())

	d, err := c.Dashboard.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, d.KPIs.Count)
	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestStartWatcher(t *testing.T) {
	c, err := New(testConfig(t, false))
	require.NoError(t, err)
	require.NoError(t, c.StartWatcher(context.Background()))
	assert.Nil(t, c.Watcher)

	cfg := testConfig(t, true)
	c, err = New(cfg)
	require.NoError(t, err)
	require.NoError(t, c.StartWatcher(context.Background()))
	defer c.Shutdown(context.Background())
	require.NotNil(t, c.Watcher)

	c.Warm(context.Background())
	require.Equal(t, 1, c.Cache.Len())

	require.NoError(t, os.WriteFile(cfg.Data.File, []byte("직원ID,퇴직여부\n1,Yes\n"), 0o644))
	assert.Eventually(t, func() bool { return c.Cache.Len() == 0 }, 5*time.Second, 20*time.Millisecond)
}
