package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type productionEnv struct {
	Port               int           `env:"PORT" envDefault:"3000"`
	RootUrl            string        `env:"ROOT_URL,required"`
	ApiBaseUrl         string        `env:"API_BASE_URL,required"`
	ApiTimeout         time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	SessionHashKeyHex  string        `env:"SESSION_HASH_KEY,required"`
	SessionBlockKeyHex string        `env:"SESSION_BLOCK_KEY,required"`
	DatabaseUrl        string        `env:"DATABASE_URL"`
	JarStorePath       string        `env:"JAR_STORE_PATH" envDefault:"data/jars.sqlite"`
	Dyno               string        `env:"DYNO"`
}

func productionConfig() Config {
	var e productionEnv
	if err := env.Parse(&e); err != nil {
		panic(err)
	}

	sessionHashKey, err := hex.DecodeString(e.SessionHashKeyHex)
	if err != nil {
		panic(err)
	}
	if len(sessionHashKey) != 32 && len(sessionHashKey) != 64 {
		panic(fmt.Errorf("SESSION_HASH_KEY must be 32 or 64 bytes, got %d", len(sessionHashKey)))
	}

	sessionBlockKey, err := hex.DecodeString(e.SessionBlockKeyHex)
	if err != nil {
		panic(err)
	}
	if len(sessionBlockKey) != 16 && len(sessionBlockKey) != 24 && len(sessionBlockKey) != 32 {
		panic(fmt.Errorf("SESSION_BLOCK_KEY must be 16, 24 or 32 bytes, got %d", len(sessionBlockKey)))
	}

	jarStore := JarStoreConfig{
		Kind: JarStoreSqlite,
		DSN:  e.JarStorePath,
	}
	if e.DatabaseUrl != "" {
		jarStore = JarStoreConfig{
			Kind: JarStorePostgres,
			DSN:  e.DatabaseUrl,
		}
	}

	return Config{
		Env:             EnvProduction,
		Port:            e.Port,
		RootUrl:         e.RootUrl,
		ApiBaseUrl:      e.ApiBaseUrl,
		ApiTimeout:      e.ApiTimeout,
		SessionHashKey:  sessionHashKey,
		SessionBlockKey: sessionBlockKey,
		SecureCookies:   true,
		JarStore:        jarStore,
		IsHeroku:        e.Dyno != "",
	}
}
