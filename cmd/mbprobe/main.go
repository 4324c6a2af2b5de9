// Command mbprobe is a smoke-test Modbus client for internal/mbgateway,
// adapted from the teacher's cmd/client/main.go TCP-handler construction
// (internal/mbgateway serves only the read-only function codes that
// client exercises: ReadHoldingRegisters/ReadInputRegisters/ReadCoils/
// ReadDiscreteInputs).
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"time"

	mb "github.com/goburrow/modbus"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:1502", "modbus gateway TCP address")
	kind := flag.String("kind", "holding", "holding|input|coil|discrete")
	start := flag.Uint("start", 0, "start address")
	qty := flag.Uint("qty", 1, "quantity of registers/bits to read")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Parse()

	handler := mb.NewTCPClientHandler(*addr)
	handler.Timeout = *timeout
	handler.SlaveId = 1
	if err := handler.Connect(); err != nil {
		log.Fatalf("connect %s: %v", *addr, err)
	}
	defer handler.Close()

	client := mb.NewClient(handler)

	switch *kind {
	case "holding":
		data, err := client.ReadHoldingRegisters(uint16(*start), uint16(*qty))
		if err != nil {
			log.Fatalf("read holding registers: %v", err)
		}
		printRegisters(data)
	case "input":
		data, err := client.ReadInputRegisters(uint16(*start), uint16(*qty))
		if err != nil {
			log.Fatalf("read input registers: %v", err)
		}
		printRegisters(data)
	case "coil":
		data, err := client.ReadCoils(uint16(*start), uint16(*qty))
		if err != nil {
			log.Fatalf("read coils: %v", err)
		}
		printBits(data, uint16(*qty))
	case "discrete":
		data, err := client.ReadDiscreteInputs(uint16(*start), uint16(*qty))
		if err != nil {
			log.Fatalf("read discrete inputs: %v", err)
		}
		printBits(data, uint16(*qty))
	default:
		log.Fatalf("unknown -kind %q", *kind)
	}
}

func printRegisters(data []byte) {
	for i := 0; i+1 < len(data); i += 2 {
		fmt.Printf("%d: %d\n", i/2, binary.BigEndian.Uint16(data[i:i+2]))
	}
}

func printBits(data []byte, qty uint16) {
	for i := 0; i < int(qty); i++ {
		bit := (data[i/8] >> (uint(i) % 8)) & 0x01
		fmt.Printf("%d: %t\n", i, bit == 0x01)
	}
}
