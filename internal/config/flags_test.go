package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		name    string
		args    []string
		want    func(c *Config)
		wantErr bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-m", ":9200", "-d", "db", "-r", "redis:6379",
				"-l", "certs.db", "-s", "secret", "-k", "jwt", "-t", "2m", "-debug",
			},
			want: func(c *Config) {
				c.GRPCAddr = "127.0.0.1:9090"
				c.MetricsAddr = ":9200"
				c.DatabaseDSN = "db"
				c.RedisAddr = "redis:6379"
				c.SQLitePath = "certs.db"
				c.Secret = "secret"
				c.AuthSecret = "jwt"
				c.AccessTokenTTL = 2 * time.Minute
				c.Debug = true
			},
		},
		{
			name: "config file flag is ignored here",
			args: []string{"cmd", "-c", "cfg.yaml", "-a", ":1"},
			want: func(c *Config) { c.GRPCAddr = ":1" },
		},
		{
			name:    "bad duration",
			args:    []string{"cmd", "-t", "whenever"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			c := defaults()

			err := parseFlags(c)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			want := defaults()
			tt.want(want)
			assert.Empty(t, cmp.Diff(want, c))
		})
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTemp(t, "cfg.json", `{"secret": "from-file", "grpc_addr": ":7000", "redis_addr": "file:6379"}`)
	t.Setenv("CERT_SECRET", "from-env")
	t.Setenv("REDIS_ADDR", "env:6379")

	os.Args = []string{"server", "-config", path, "-r", "flag:6379"}

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":7000", c.GRPCAddr, "file overrides defaults")
	assert.Equal(t, "from-env", c.Secret, "env overrides file")
	assert.Equal(t, "flag:6379", c.RedisAddr, "flags override env")
}
