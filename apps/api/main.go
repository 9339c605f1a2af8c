package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/0xJayOnchain/academic-chain/apps/api/echo"
	"github.com/0xJayOnchain/academic-chain/core"
	"github.com/0xJayOnchain/academic-chain/core/student"
	"github.com/0xJayOnchain/academic-chain/core/wallet"
	logsvc "github.com/0xJayOnchain/academic-chain/services/logger"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up the wallet; without one every page reports the no-provider state
	var provider wallet.Provider
	if conf.Wallet.ProviderURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		rpcProvider, err := wallet.Dial(ctx, conf.Wallet.ProviderURL)
		cancel()
		if err != nil {
			logger.Warn(fmt.Sprintf("wallet unavailable: %v", err), err)
		} else {
			defer rpcProvider.Close()
			provider = rpcProvider
		}
	}
	if !common.IsHexAddress(conf.Contract.Address) {
		logger.Fatal(fmt.Sprintf("invalid contract address %q", conf.Contract.Address))
	}

	guard := wallet.NewGuard(provider, conf.TargetChain())
	contract, err := student.NewContract(provider, guard, common.HexToAddress(conf.Contract.Address))
	if err != nil {
		logger.Fatal(fmt.Sprintf("binding contract: %v", err), err)
	}
	studentSvc, err := student.NewService(contract, conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up student service: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("chain").Set(conf.TargetChain().HexID())
	expvar.NewString("contract").Set(contract.Address().Hex())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			StudentSvc: studentSvc,
			Guard:      guard,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
