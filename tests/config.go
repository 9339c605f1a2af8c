package testutil

import (
	"time"

	"github.com/0xJayOnchain/academic-chain/core"
)

// Config returns the TEST configuration with the simulated chain's defaults.
func Config() *core.Config {
	conf := &core.Config{
		AppName:            "Academic Chain",
		Env:                "TEST",
		Build:              "test",
		TestMode:           true,
		SecretKey:          []byte("test-secret"),
		JWTExpirationDelta: time.Hour,
	}
	chain := TargetChain()
	conf.Auth.Username = "admin"
	conf.Chain.ID = chain.ID
	conf.Chain.Name = chain.Name
	conf.Chain.RPCURLs = chain.RPCURLs
	conf.Chain.ExplorerURLs = chain.ExplorerURLs
	conf.Chain.CurrencyName = chain.Currency.Name
	conf.Chain.CurrencySymbol = chain.Currency.Symbol
	conf.Chain.CurrencyDecimals = chain.Currency.Decimals
	conf.Contract.Address = ContractAddress.Hex()
	conf.Dashboard.Strategy = core.DashboardFixed
	conf.Dashboard.StudentID = 1
	conf.Fetch.Concurrency = 1
	return conf
}
