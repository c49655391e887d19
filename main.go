package main

import "github.com/ValentinKolb/dLedger/cmd"

func main() {
	cmd.Execute()
}
