// Package main is the entry point of the ddrcfg command.
package main

import "github.com/sarchlab/ddrconfig/ddrcfg/cmd"

func main() {
	cmd.Execute()
}
