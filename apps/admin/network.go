package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/0xJayOnchain/academic-chain/core/wallet"
)

func (cli *commandLine) network(ctx context.Context, connect, switchNetwork bool) error {
	var st wallet.Status
	var err error
	switch {
	case connect:
		st, err = cli.guard.Connect(ctx)
	case switchNetwork:
		st, err = cli.guard.SwitchNetwork(ctx)
	default:
		st, err = cli.guard.Check(ctx)
	}

	fmt.Fprintf(cli.out, "Target:  %s (Chain ID: %d)\n", st.TargetChain, st.TargetChainID)
	fmt.Fprintf(cli.out, "State:   %s\n", st.State)
	if st.Account != "" {
		fmt.Fprintf(cli.out, "Account: %s\n", st.Account)
	}
	if st.ChainID != 0 {
		fmt.Fprintf(cli.out, "Chain:   %d\n", st.ChainID)
	}

	var werr *wallet.Error
	if errors.As(err, &werr) {
		fmt.Fprintln(cli.out, werr.Message)
		switch werr.Action {
		case wallet.ActionConnect:
			fmt.Fprintln(cli.out, "Run `network -connect` to connect.")
		case wallet.ActionSwitchNetwork:
			fmt.Fprintln(cli.out, "Run `network -switch` to switch.")
		}
	}
	return err
}
