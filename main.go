package main

import "car-journal-backend/cmd"

func main() {
	cmd.Run()
}
