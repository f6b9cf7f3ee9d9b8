package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Fixed keys so that dev sessions survive restarts. Never used outside development and testing.
const devSessionHashKeyHex = "6a0c3f1d2b7e4c58a9f01e2d3c4b5a6978f0e1d2c3b4a5968778695a4b3c2d1e" +
	"0f1e2d3c4b5a69788796a5b4c3d2e1f00112233445566778899aabbccddeeff0"
const devSessionBlockKeyHex = "00112233445566778899aabbccddeeff0f1e2d3c4b5a69788796a5b4c3d2e1f0"

func developmentConfig() Config {
	loadEnvFile()

	cfg := defaultDevelopmentConfig()
	if apiBaseUrl, ok := os.LookupEnv("API_BASE_URL"); ok {
		cfg.ApiBaseUrl = apiBaseUrl
	}
	if portStr, ok := os.LookupEnv("PORT"); ok {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Port = port
		}
	}
	if jarPath, ok := os.LookupEnv("JAR_STORE_PATH"); ok {
		cfg.JarStore.DSN = jarPath
	}
	return cfg
}

func defaultDevelopmentConfig() Config {
	sessionHashKey, err := hex.DecodeString(devSessionHashKeyHex)
	if err != nil {
		panic(err)
	}
	sessionBlockKey, err := hex.DecodeString(devSessionBlockKeyHex)
	if err != nil {
		panic(err)
	}

	return Config{
		Env:             EnvDevelopment,
		Port:            3000,
		RootUrl:         "http://localhost:3000",
		ApiBaseUrl:      "http://localhost:8000",
		ApiTimeout:      30 * time.Second,
		SessionHashKey:  sessionHashKey,
		SessionBlockKey: sessionBlockKey,
		SecureCookies:   false,
		JarStore: JarStoreConfig{
			Kind: JarStoreSqlite,
			DSN:  "data/jars.sqlite",
		},
		IsHeroku: false,
	}
}

// .env.local is picked up from the working directory or its parent
func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}
