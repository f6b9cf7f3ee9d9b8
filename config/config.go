package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Env             Env
	Port            int
	RootUrl         string
	ApiBaseUrl      string
	ApiTimeout      time.Duration
	SessionHashKey  []byte
	SessionBlockKey []byte
	SecureCookies   bool
	JarStore        JarStoreConfig
	IsHeroku        bool
}

type Env int

const (
	EnvDevelopment Env = iota
	EnvTesting
	EnvProduction
)

func (e Env) IsDevOrTest() bool {
	return e == EnvDevelopment || e == EnvTesting
}

type JarStoreKind string

const (
	JarStoreSqlite   JarStoreKind = "sqlite"
	JarStorePostgres JarStoreKind = "postgres"
)

// DSN is a file path for sqlite and a connection string for postgres
type JarStoreConfig struct {
	Kind JarStoreKind
	DSN  string
}

func (c JarStoreConfig) String() string {
	if c.Kind == JarStorePostgres {
		return fmt.Sprintf("%s (%s)", c.Kind, redactDSN(c.DSN))
	}
	return fmt.Sprintf("%s (%s)", c.Kind, c.DSN)
}

func redactDSN(dsn string) string {
	atIndex := strings.LastIndex(dsn, "@")
	if atIndex < 0 {
		return dsn
	}
	schemeIndex := strings.Index(dsn, "://")
	if schemeIndex < 0 || schemeIndex > atIndex {
		return "*******" + dsn[atIndex:]
	}
	return dsn[:schemeIndex+3] + "*******" + dsn[atIndex:]
}

const AuthTokenLength = 16

var Cfg Config

func init() {
	if isTesting {
		Cfg = testingConfig()
		return
	}

	_, ok := os.LookupEnv("ENVIRONOVALAB_ENV")
	if !ok {
		Cfg = developmentConfig()
		return
	}

	Cfg = productionConfig()
}
