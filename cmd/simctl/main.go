// Command simctl is a scriptable client over the simulator's line
// protocol, adapted from the teacher's cmd/client/main.go dial/poll
// pattern: instead of polling a fixed register list off a TOML manifest,
// it issues one named verb with optional target/value, or loops on a
// MONITOR subscription when -watch is set.
package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"devicesim/pkg/simclient"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5064", "simulator address")
	verb := flag.String("verb", "PING", "PING|GET|PUT|MOVE|STATUS|LIST|MONITOR")
	target := flag.String("target", "", "PV or motor name")
	value := flag.Float64("value", 0, "value for PUT/MOVE")
	intervalMS := flag.Int64("interval", 1000, "MONITOR interval in milliseconds")
	watch := flag.Bool("watch", false, "with -verb MONITOR, print pushes until interrupted")
	timeout := flag.Duration("timeout", 5*time.Second, "dial timeout")
	flag.Parse()

	c, err := simclient.Dial(*addr, *timeout)
	if err != nil {
		log.Fatalf("dial %s: %v", *addr, err)
	}
	defer c.Close()

	switch *verb {
	case "PING":
		if err := c.Ping(); err != nil {
			log.Fatalf("ping: %v", err)
		}
		fmt.Println("PONG")
	case "GET":
		v, err := c.Get(*target)
		if err != nil {
			log.Fatalf("get %s: %v", *target, err)
		}
		fmt.Println(strconv.FormatFloat(v, 'g', 6, 64))
	case "PUT":
		if err := c.Put(*target, *value); err != nil {
			log.Fatalf("put %s: %v", *target, err)
		}
		fmt.Println("OK")
	case "MOVE":
		if err := c.Move(*target, *value); err != nil {
			log.Fatalf("move %s: %v", *target, err)
		}
		fmt.Println("OK")
	case "STATUS":
		status, err := c.Status(*target)
		if err != nil {
			log.Fatalf("status %s: %v", *target, err)
		}
		fmt.Println(status)
	case "LIST":
		names, err := c.List(*target)
		if err != nil {
			log.Fatalf("list %s: %v", *target, err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
	case "MONITOR":
		if err := c.Monitor(*target, *intervalMS); err != nil {
			log.Fatalf("monitor %s: %v", *target, err)
		}
		if !*watch {
			fmt.Println("OK")
			return
		}
		for {
			v, err := c.NextPush()
			if err != nil {
				log.Fatalf("monitor push: %v", err)
			}
			fmt.Printf("%s %s\n", time.Now().Format(time.RFC3339), strconv.FormatFloat(v, 'g', 6, 64))
		}
	default:
		log.Fatalf("unknown -verb %q", *verb)
	}
}
