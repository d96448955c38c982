/*
Package imgtensor converts images into normalized raw float32 tensors, ready to be fed
into an image classification network expecting a NCHW input of shape [1, 3, 224, 224].

Each image is resized to 256x256, center cropped to 224x224, normalized channel-wise with
the ImageNet mean and standard deviation, then transposed from HWC to CHW order and dumped
as little-endian float32 values into a headerless .bin file.

The package provides a command line interface able to convert a whole directory of images.
To check the supported commands type:

	$ imgtensor --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"github.com/esimov/imgtensor"
	)

	func main() {
		p := imgtensor.NewProcessor()

		res := p.ProcessFile("dog.jpg")
		if res.Err != nil {
			fmt.Printf("Error converting image: %s", res.Err.Error())
		}
	}
*/
package imgtensor
