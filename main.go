package main

import (
	"os"

	"github.com/GoVCL/GoVCL/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
