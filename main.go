package main

import "mspro-labs/import-scout/cmd"

func main() {
	cmd.Execute()
}
