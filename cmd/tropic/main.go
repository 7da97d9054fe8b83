package main

import (
	"fmt"
	"os"

	"github.com/esimov/tropic/utils"
)

const helpBanner = `
┌┬┐┬─┐┌─┐┌─┐┬┌─┐
 │ ├┬┘│ │├─┘││
 ┴ ┴└─└─┘┴  ┴└─┘

Max-plus convolution, distance transforms and landmark detection maps.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, utils.DecorateText(err.Error(), utils.ErrorMessage))
		os.Exit(1)
	}
}
