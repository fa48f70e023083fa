// imgfetch downloads one or more keys through a running relay into a local
// cache dir and prints the terminal state per key.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/imgrelay/imgrelay/internal/consumer"
)

func main() {
	url := flag.String("url", "http://localhost:8080", "relay base URL")
	cache := flag.String("cache", "./cache", "local cache directory")
	flag.Parse()

	keys := flag.Args()
	if len(keys) == 0 {
		fmt.Fprintln(os.Stderr, "usage: imgfetch [-url URL] [-cache DIR] key [key...]")
		os.Exit(2)
	}

	c, err := consumer.New(*url, *cache)
	if err != nil {
		log.Fatalf("consumer: %v", err)
	}

	failed := 0
	for _, key := range keys {
		res := c.Fetch(context.Background(), key)
		switch res.State {
		case consumer.StateReady:
			fmt.Printf("%s\t%s\t%s\n", key, res.State, res.Path)
		default:
			failed++
			fmt.Printf("%s\t%s\t%s\t(%v)\n", key, res.State, res.Path, res.Err)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
