package main

import "flightplan-bridge/cmd"

func main() {
	cmd.Execute()
}
