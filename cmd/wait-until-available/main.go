package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"
)

// Usage example on the command line:
// > go run main.go -url=http://localhost:8088/ -timeout=2m
func main() {
	url := flag.String("url", "http://localhost:8088/", "the liveness URL of the contacts service")
	timeout := flag.Duration("timeout", 0, "give up after this long, zero waits forever")
	flag.Parse()

	totalWaitTime := 0
	for {
		res, err := http.Get(*url)
		if err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				fmt.Println(res.Status)
				break
			} else {
				fmt.Println(res.Status)
			}
		} else {
			fmt.Println(err)
		}
		totalWaitTime += 5
		if *timeout > 0 && time.Duration(totalWaitTime)*time.Second > *timeout {
			panic(fmt.Sprintf("%s not available after %s", *url, *timeout))
		}
		fmt.Printf("Waiting %d seconds", totalWaitTime)
		fmt.Println()
		time.Sleep(5 * time.Second)
	}
}
