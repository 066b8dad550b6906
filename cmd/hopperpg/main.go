// Command hopperpg trains Gaussian policy gradient agents with
// REINFORCE or one-step actor-critic and plots their learning curves.
package main

import (
	"log"
	"os"
)

func main() {
	log.SetPrefix("hopperpg: ")
	if err := rootCommand().Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
