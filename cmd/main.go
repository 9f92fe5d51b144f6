package main

import "github.com/Leganyst/vetclinic-booking/internal/cli"

func main() {
	cli.Execute()
}
