package main

import (
	"github.com/Srivastava-Shrestha/AIDeployer/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
