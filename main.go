package main

import "github.com/LegacyCodeHQ/modgen/cmd"

func main() {
	cmd.Execute()
}
