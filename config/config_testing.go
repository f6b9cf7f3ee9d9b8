//go:build testing

package config

const isTesting = true

func testingConfig() Config {
	devCfg := defaultDevelopmentConfig()
	return Config{
		Env:             EnvTesting,
		Port:            devCfg.Port,
		RootUrl:         devCfg.RootUrl,
		ApiBaseUrl:      devCfg.ApiBaseUrl,
		ApiTimeout:      devCfg.ApiTimeout,
		SessionHashKey:  devCfg.SessionHashKey,
		SessionBlockKey: devCfg.SessionBlockKey,
		SecureCookies:   false,
		JarStore: JarStoreConfig{
			Kind: JarStoreSqlite,
			DSN:  "file::memory:?cache=shared",
		},
		IsHeroku: false,
	}
}
