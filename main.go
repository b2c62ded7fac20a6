package main

import "shoe-market-backend/cmd"

func main() {
	cmd.Run()
}
