package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type DB struct {
	Driver string
	Host   string
	Port   int
	User   string
	Pass   string
	Name   string
	Path   string
}

type HTTP struct {
	Host string
	Port int
}

type Redis struct {
	Namespace string
	// Shards maps a queue database moniker to a redis URL. Monikers keep
	// the case they were configured with.
	Shards map[string]string
}

// Shard is one entry of backend.redis.shards. The list form keeps monikers
// out of map keys, which viper lowercases.
type Shard struct {
	Moniker string `mapstructure:"moniker"`
	URL     string `mapstructure:"url"`
}

type Query struct {
	ScanPageSize int
	MaxResults   int
	// RequesterGroups lists requesters that are aliases of one another.
	RequesterGroups             [][]string
	MultiTenantMinClientVersion string
}

type Log struct {
	Level  string
	Format string
}

type Config struct {
	HTTP  HTTP
	DB    DB
	Redis Redis
	JWT   struct {
		Secret string
		Issuer string
		ExpMin int
	}
	Auth struct {
		TrustedRoles   []string
		BootstrapAdmin struct {
			Username string
			Password string
		}
	}
	AgentMapPath string
	Query        Query
	Log          Log
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("backend.host", "127.0.0.1")
	v.SetDefault("backend.port", 9200)
	v.SetDefault("backend.db.driver", "mysql")
	v.SetDefault("backend.db.host", "127.0.0.1")
	v.SetDefault("backend.db.port", 3306)
	v.SetDefault("backend.db.user", "root")
	v.SetDefault("backend.db.pass", "")
	v.SetDefault("backend.db.name", "compliance_feed")
	v.SetDefault("backend.redis.namespace", "pcf")
	v.SetDefault("backend.jwt.secret", "dev-secret")
	v.SetDefault("backend.jwt.issuer", "compliance-feed")
	v.SetDefault("backend.jwt.exp_min", 60)
	v.SetDefault("backend.auth.trusted_roles", []string{"admin"})
	v.SetDefault("backend.agentmap.path", "agents.yaml")
	v.SetDefault("backend.query.scan_page_size", 200)
	v.SetDefault("backend.query.max_results", 5000)
	v.SetDefault("backend.query.multi_tenant_min_client_version", "2.0.0")
	v.SetDefault("backend.log.level", "info")
	v.SetDefault("backend.log.format", "console")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{
		HTTP: HTTP{Host: v.GetString("backend.host"), Port: v.GetInt("backend.port")},
		DB: DB{
			Driver: v.GetString("backend.db.driver"),
			Host:   v.GetString("backend.db.host"),
			Port:   v.GetInt("backend.db.port"),
			User:   v.GetString("backend.db.user"),
			Pass:   v.GetString("backend.db.pass"),
			Name:   v.GetString("backend.db.name"),
			Path:   v.GetString("backend.db.path"),
		},
		Redis: Redis{
			Namespace: v.GetString("backend.redis.namespace"),
		},
		AgentMapPath: v.GetString("backend.agentmap.path"),
		Query: Query{
			ScanPageSize:                v.GetInt("backend.query.scan_page_size"),
			MaxResults:                  v.GetInt("backend.query.max_results"),
			MultiTenantMinClientVersion: v.GetString("backend.query.multi_tenant_min_client_version"),
		},
		Log: Log{Level: v.GetString("backend.log.level"), Format: v.GetString("backend.log.format")},
	}
	cfg.JWT.Secret = v.GetString("backend.jwt.secret")
	cfg.JWT.Issuer = v.GetString("backend.jwt.issuer")
	cfg.JWT.ExpMin = v.GetInt("backend.jwt.exp_min")
	if cfg.JWT.ExpMin <= 0 {
		cfg.JWT.ExpMin = 60
	}
	cfg.Auth.TrustedRoles = v.GetStringSlice("backend.auth.trusted_roles")
	cfg.Auth.BootstrapAdmin.Username = v.GetString("backend.auth.bootstrap_admin.username")
	cfg.Auth.BootstrapAdmin.Password = v.GetString("backend.auth.bootstrap_admin.password")

	if err := v.UnmarshalKey("backend.query.requester_groups", &cfg.Query.RequesterGroups); err != nil {
		return nil, fmt.Errorf("read config: requester_groups: %w", err)
	}
	shards, err := readShards(v)
	if err != nil {
		return nil, err
	}
	cfg.Redis.Shards = shards
	return cfg, nil
}

func readShards(v *viper.Viper) (map[string]string, error) {
	var list []Shard
	if err := v.UnmarshalKey("backend.redis.shards", &list); err != nil {
		return nil, fmt.Errorf("read config: redis.shards must be a list of {moniker, url}: %w", err)
	}
	out := make(map[string]string, len(list))
	for i, s := range list {
		if s.Moniker == "" || s.URL == "" {
			return nil, fmt.Errorf("read config: redis.shards[%d]: moniker and url are required", i)
		}
		if _, dup := out[s.Moniker]; dup {
			return nil, fmt.Errorf("read config: redis.shards: duplicate moniker %q", s.Moniker)
		}
		out[s.Moniker] = s.URL
	}
	return out, nil
}
