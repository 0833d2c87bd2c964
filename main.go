package main

import "github.com/frahmantamala/club-ledger/cmd"

func main() {
	cmd.Execute()
}
