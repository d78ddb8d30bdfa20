// Package main is the pagehound binary entry point.
package main

import "github.com/pagehound/pagehound/cmd"

func main() {
	cmd.Execute()
}
