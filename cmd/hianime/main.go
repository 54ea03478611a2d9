package main

import "github.com/alvarorichard/hianime/internal/cli"

func main() {
	cli.Execute()
}
