package main

import "github.com/pandodao/tag-wallet/cmd/tagwallet-cli/cmd"

func main() {
	cmd.Execute()
}
