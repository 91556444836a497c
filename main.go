package main

import "wedding-booking/cmd"

func main() {
	cmd.Execute()
}
