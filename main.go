package main

import "food-order-bot/cmd"

func main() {
	cmd.Execute()
}
