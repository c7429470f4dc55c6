package main

import (
	"github.com/outage-collector/cmd/outage"
)

func main() {
	outage.Execute()
}
