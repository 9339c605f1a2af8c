package main

import (
	"context"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"github.com/0xJayOnchain/academic-chain/core"
	"github.com/0xJayOnchain/academic-chain/core/student"
	"github.com/0xJayOnchain/academic-chain/core/wallet"
	logsvc "github.com/0xJayOnchain/academic-chain/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	var provider wallet.Provider
	if conf.Wallet.ProviderURL != "" {
		rpcProvider, err := wallet.Dial(context.Background(), conf.Wallet.ProviderURL)
		if err != nil {
			logger.Warn("wallet unavailable", err)
		} else {
			defer rpcProvider.Close()
			provider = rpcProvider
		}
	}

	guard := wallet.NewGuard(provider, conf.TargetChain())
	contract, err := student.NewContract(provider, guard, common.HexToAddress(conf.Contract.Address))
	errAndDie(logger, err)
	svc, err := student.NewService(contract, conf, logger)
	errAndDie(logger, err)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		svc:        svc,
		guard:      guard,
		validate:   validate,
		translator: translator,
		timeout:    conf.Wallet.RequestTimeout,
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
