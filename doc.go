/*
Package tropic computes separable max-plus convolutions over 2-D grids and builds
the fields derived from them: Euclidean and signed distance transforms of binary
masks, and detection maps pre-convolved with a Gaussian displacement noise so that
a landmark can be scored anywhere in the image with a single lookup.

The package provides a command line interface, supporting a sub-command for each field.
To check the supported commands type:

	$ tropic --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"github.com/esimov/tropic"
	)

	func main() {
		mask := tropic.NewMask(width, height)
		// Mark the foreground pixels.
		dist := tropic.DistanceTransform(mask)

		fmt.Println(dist.At(x, y))
	}
*/
package tropic
