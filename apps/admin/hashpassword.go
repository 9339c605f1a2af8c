package main

import (
	"fmt"

	"github.com/0xJayOnchain/academic-chain/core"
)

func (cli *commandLine) hashPassword(pwd string) error {
	hash, err := core.HashPassword(pwd)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Set the operator password hash in the environment, e.g.:")
	fmt.Fprintf(cli.out, "  PROD_AUTH_PASSWORDHASH='%s'\n", hash)
	return nil
}
