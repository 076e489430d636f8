package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsPrefixedEnvironment(t *testing.T) {
	t.Setenv("DAVOMAT_JWT_SECRET", "secret")
	t.Setenv("DAVOMAT_APP_PORT", "9090")
	t.Setenv("DAVOMAT_DATABASE_DRIVER", "SQLite")
	t.Setenv("DAVOMAT_REPORTS_CACHE_TTL", "90s")
	t.Setenv("DAVOMAT_BOOTSTRAP_ADMIN_TELEGRAM_ID", "12345")
	t.Setenv("DAVOMAT_BOOTSTRAP_ADMIN_PHONE", "+998901234567")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	require.Equal(t, 90*time.Second, cfg.ReportCacheTTL)
	require.Equal(t, 24*time.Hour, cfg.JWTTTL)
	require.Equal(t, int64(12345), cfg.BootstrapTelegramID)
	require.True(t, cfg.HasBootstrapAdmin())
	require.Equal(t, "Asia/Tashkent", cfg.Location.String())
}

func TestLoadRequiresSecret(t *testing.T) {
	_, err := fromViper(viper.New())
	require.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"database.driver":   "mysql",
		"reports.cache_ttl": "soon",
		"app.timezone":      "Mars/Olympus",
	}

	for key, value := range cases {
		v := viper.New()
		v.Set("jwt.secret", "secret")
		v.Set(key, value)

		_, err := fromViper(v)
		require.Error(t, err, key)
	}
}
