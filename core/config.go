package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/0xJayOnchain/academic-chain/core/wallet"
)

// Dashboard student resolution strategies.
const (
	DashboardFixed  = "fixed"
	DashboardWallet = "wallet"
)

type Config struct {
	AppName            string
	Env                string // DEV (local; default), TEST, QA, PROD
	Build              string
	Debug              bool
	TestMode           bool
	SecretKey          []byte
	JWTExpirationDelta time.Duration
	RollbarToken       string

	Server struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
	}

	// Auth holds the single operator allowed to use the API.
	Auth struct {
		Username     string
		PasswordHash string // bcrypt
	}

	Wallet struct {
		ProviderURL    string
		RequestTimeout time.Duration // 0: no timeout
	}

	Chain struct {
		ID               uint64
		Name             string
		RPCURLs          []string
		ExplorerURLs     []string
		CurrencyName     string
		CurrencySymbol   string
		CurrencyDecimals uint8
	}

	Contract struct {
		Address string
	}

	Dashboard struct {
		Strategy  string
		StudentID uint64
	}

	Fetch struct {
		Concurrency int
	}
}

// TargetChain returns the network the wallet must be connected to.
func (c *Config) TargetChain() wallet.Chain {
	return wallet.Chain{
		ID:           c.Chain.ID,
		Name:         c.Chain.Name,
		RPCURLs:      c.Chain.RPCURLs,
		ExplorerURLs: c.Chain.ExplorerURLs,
		Currency: wallet.Currency{
			Name:     c.Chain.CurrencyName,
			Symbol:   c.Chain.CurrencySymbol,
			Decimals: c.Chain.CurrencyDecimals,
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Academic Chain")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "b9v+k2#q!0mz@7w$x8(e^s4lrt5)h3n_c6yj=a1pgud&fo*i")
	v.SetDefault("jwtExpirationDelta", 8*time.Hour)
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost:8000")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.readTimeout", 10*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)

	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.passwordHash", "")

	v.SetDefault("wallet.providerURL", "http://127.0.0.1:1248")
	v.SetDefault("wallet.requestTimeout", 0*time.Second)

	v.SetDefault("chain.id", uint64(84532))
	v.SetDefault("chain.name", "Base Sepolia")
	v.SetDefault("chain.rpcURLs", []string{"https://sepolia.base.org"})
	v.SetDefault("chain.explorerURLs", []string{"https://sepolia.basescan.org"})
	v.SetDefault("chain.currencyName", "ETH")
	v.SetDefault("chain.currencySymbol", "ETH")
	v.SetDefault("chain.currencyDecimals", uint8(18))

	v.SetDefault("contract.address", "0x9ADe272f23BE03f01CA9b79740094368beec372C")

	v.SetDefault("dashboard.strategy", DashboardFixed)
	v.SetDefault("dashboard.studentId", uint64(1))

	v.SetDefault("fetch.concurrency", 1)
}

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed with the environment name, e.g. `PROD_CHAIN_ID`.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return fromViper(v, env)
}

func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}

func fromViper(v *viper.Viper, env string) *Config {
	conf := &Config{
		AppName:            v.GetString("appName"),
		Env:                env,
		Build:              v.GetString("build"),
		Debug:              v.GetBool("debug"),
		TestMode:           v.GetBool("testMode"),
		SecretKey:          []byte(v.GetString("secretKey")),
		JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		RollbarToken:       v.GetString("rollbarToken"),
	}

	conf.Server.Host = v.GetString("server.host")
	conf.Server.DebugHost = v.GetString("server.debugHost")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Server.ReadTimeout = v.GetDuration("server.readTimeout")
	conf.Server.WriteTimeout = v.GetDuration("server.writeTimeout")

	conf.Auth.Username = CleanString(v.GetString("auth.username"), true /* lower */)
	conf.Auth.PasswordHash = v.GetString("auth.passwordHash")

	conf.Wallet.ProviderURL = v.GetString("wallet.providerURL")
	conf.Wallet.RequestTimeout = v.GetDuration("wallet.requestTimeout")

	conf.Chain.ID = v.GetUint64("chain.id")
	conf.Chain.Name = v.GetString("chain.name")
	conf.Chain.RPCURLs = v.GetStringSlice("chain.rpcURLs")
	conf.Chain.ExplorerURLs = v.GetStringSlice("chain.explorerURLs")
	conf.Chain.CurrencyName = v.GetString("chain.currencyName")
	conf.Chain.CurrencySymbol = v.GetString("chain.currencySymbol")
	conf.Chain.CurrencyDecimals = uint8(v.GetUint("chain.currencyDecimals"))

	conf.Contract.Address = v.GetString("contract.address")

	conf.Dashboard.Strategy = CleanString(v.GetString("dashboard.strategy"), true /* lower */)
	conf.Dashboard.StudentID = v.GetUint64("dashboard.studentId")

	conf.Fetch.Concurrency = v.GetInt("fetch.concurrency")
	if conf.Fetch.Concurrency < 1 {
		conf.Fetch.Concurrency = 1
	}
	return conf
}
