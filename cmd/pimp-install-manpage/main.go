package main

import (
	"fmt"
	"os"

	pimpinstall "github.com/pimp-project/pimp-install/cmd/pimp-install"
)

func main() {
	rootCmd := pimpinstall.NewRootCmd()

	if err := pimpinstall.WriteManPage(rootCmd, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
