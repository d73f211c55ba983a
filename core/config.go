package core

import (
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	EnvDev  = "DEV"
	EnvTest = "TEST"
	EnvQA   = "QA"
	EnvProd = "PROD"

	envPrefix        = "GRADERLY"
	devSecretKey     = "b0d8-graderly)xk&u2(h!x)#*c2(#yg4h^$cegm2emy"
	defaultOracleURL = "http://localhost:8000"
)

type (
	ServerConfig struct {
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		DisableReqLogs     bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | bolt | memory
		URL           string // full connection string; takes precedence over the parts below
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		Name          string
		DisableTLS    bool
		BoltPath      string
	}

	GradingConfig struct {
		Backend           string // http | similarity
		URL               string
		Timeout           time.Duration
		RestrictOverrides bool
	}

	SecurityConfig struct {
		BcryptCost int
	}

	Config struct {
		Debug            bool
		TestMode         bool
		Env              string
		Build            string
		AppName          string
		SecretKey        string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address

		Server   ServerConfig
		Database DatabaseConfig
		Grading  GradingConfig
		Security SecurityConfig
	}
)

// Address returns the host:port of the database server.
func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// NewConfig loads the configuration from the environment,
// after loading `config/.env.<env>` if present.
func NewConfig() (*Config, error) {
	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = EnvDev
	}

	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v := viper.New()
	setDefaults(v, env)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing defaultFromEmail")
	}

	conf := &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		DefaultFromEmail: *from,
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			DisableReqLogs:     v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			URL:           v.GetString("database.url"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			BoltPath:      v.GetString("database.boltPath"),
		},
		Grading: GradingConfig{
			Backend:           v.GetString("grading.backend"),
			URL:               v.GetString("grading.url"),
			Timeout:           v.GetDuration("grading.timeout"),
			RestrictOverrides: v.GetBool("grading.restrictOverrides"),
		},
		Security: SecurityConfig{
			BcryptCost: v.GetInt("security.bcryptCost"),
		},
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func setDefaults(v *viper.Viper, env string) {
	local := env == EnvDev || env == EnvTest

	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", local)
	v.SetDefault("testMode", env == EnvTest)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Graderly")
	v.SetDefault("secretKey", devSecretKey)
	v.SetDefault("defaultFromEmail", "Graderly <noreply@localhost>")

	v.SetDefault("server.host", "0.0.0.0:5000")
	v.SetDefault("server.debugHost", "0.0.0.0:5001")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.user", "graderly")
	v.SetDefault("database.password", "graderly")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "graderly")
	v.SetDefault("database.disableTLS", local)
	v.SetDefault("database.boltPath", "graderly.db")

	v.SetDefault("grading.backend", "http")
	v.SetDefault("grading.url", defaultOracleURL)
	v.SetDefault("grading.timeout", 10*time.Second)
	v.SetDefault("grading.restrictOverrides", true)

	v.SetDefault("security.bcryptCost", bcrypt.DefaultCost)
}

// Validate refuses development defaults outside of local environments.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("config: secretKey is required")
	}
	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return errors.Errorf("config: security.bcryptCost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Env != EnvProd {
		return nil
	}
	if c.Debug {
		return errors.New("config: debug must be disabled in PROD")
	}
	if c.SecretKey == devSecretKey {
		return errors.New("config: secretKey must be set in PROD")
	}
	if c.Grading.Backend == "http" && c.Grading.URL == defaultOracleURL {
		return errors.New("config: grading.url must be set in PROD")
	}
	return nil
}
