package main

import "supplyguard/server"

func main() {
	server.Run()
}
