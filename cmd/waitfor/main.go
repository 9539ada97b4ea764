package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"time"
)

var (
	host     = flag.String("host", "localhost", "the host to connect to")
	port     = flag.String("port", "27017", "the port to connect to")
	attempts = flag.Int("attempts", 20, "how many times to retry before giving up")
)

// waitfor blocks until a TCP connection to the target succeeds. Compose files
// use it to hold service startup until the backing stores accept connections.
func main() {
	flag.Parse()

	addr := net.JoinHostPort(*host, *port)
	for i := 0; i < *attempts; i++ {
		conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
		if err == nil {
			conn.Close()
			fmt.Printf("TCP connection available on [%s]\n", addr)
			return
		}
		fmt.Printf("connection not yet available on [%s]: %v\n", addr, err)
		time.Sleep(time.Second)
	}
	log.Panicf("could not open TCP connection on [%s] after %d attempts", addr, *attempts)
}
