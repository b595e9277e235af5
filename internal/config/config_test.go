package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults when file is missing", func(t *testing.T) {
		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, ":8181", cfg.Server.Addr)
		assert.Equal(t, 40.0, cfg.Timesheet.WeeklyHourCap)
		assert.Equal(t, "log", cfg.Notification.Sender)
		day, err := cfg.Timesheet.FirstDay()
		require.NoError(t, err)
		assert.Equal(t, time.Monday, day)
	})

	t.Run("should override file values with environment", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		content := "timesheet:\n  weekstartday: sunday\ndb:\n  host: db.internal\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		t.Setenv("TIMESHEET_DB_HOST", "db.env")

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "db.env", cfg.Database.Host)
		day, err := cfg.Timesheet.FirstDay()
		require.NoError(t, err)
		assert.Equal(t, time.Sunday, day)
	})

	t.Run("should reject unknown week start day", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		require.NoError(t, os.WriteFile(path, []byte("timesheet:\n  weekstartday: friday\n"), 0o644))

		// when
		_, err := Load(path)

		// then
		assert.Error(t, err)
	})
}
