package directory

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"capsyhub/internal/config"
	"capsyhub/pkg/interfaces"
)

// New builds the user directory from configuration: a SQLite store, wrapped
// in a Redis read-through cache when a Redis address is configured.
func New(dirCfg *config.DirectoryConfig, redisCfg *config.RedisConfig) (interfaces.AccountDirectory, error) {
	sqlite, err := NewSQLiteDirectory(dirCfg.Path)
	if err != nil {
		return nil, err
	}

	if redisCfg == nil || redisCfg.Addr == "" {
		slog.Info("user directory ready", "path", dirCfg.Path, "cache", "none")
		return sqlite, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Username: redisCfg.Username,
		Password: redisCfg.Password,
	})
	slog.Info("user directory ready", "path", dirCfg.Path, "cache", redisCfg.Addr)
	return NewCachedDirectory(sqlite, client, redisCfg.TTL), nil
}
