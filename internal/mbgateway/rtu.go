package mbgateway

import (
	"context"
	"encoding/binary"
	"io"
	"time"

	"github.com/goburrow/serial"
)

// RTUParams configures the serial transport for the RTU variant of the
// gateway, adapted from cmd/server/main.go's serialParams.
type RTUParams struct {
	Address  string
	Baud     int
	DataBits int
	StopBits int
	Parity   string
}

func (p RTUParams) withDefaults() RTUParams {
	if p.Baud == 0 {
		p.Baud = 9600
	}
	if p.DataBits == 0 {
		p.DataBits = 8
	}
	if p.StopBits == 0 {
		p.StopBits = 1
	}
	if p.Parity == "" {
		p.Parity = "N"
	}
	return p
}

// ServeRTU opens the serial port described by params and serves Modbus
// RTU frames against s's tables until ctx is cancelled, adapted from
// cmd/server/main.go's serveSerialRTU/rtuStream pair. Unlike the
// teacher's version this reuses Server.HandlePDU directly rather than a
// second in-memory store, since the gateway's tables are the only state
// that needs to exist regardless of which transport reaches them.
func (s *Server) ServeRTU(ctx context.Context, params RTUParams) error {
	p := params.withDefaults()
	cfg := &serial.Config{
		Address:  p.Address,
		BaudRate: p.Baud,
		DataBits: p.DataBits,
		StopBits: p.StopBits,
		Parity:   p.Parity,
		Timeout:  10 * time.Second,
	}
	rw, err := serial.Open(cfg)
	if err != nil {
		return err
	}
	defer rw.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.rtuStream(rw)
	}()
	<-ctx.Done()
	rw.Close()
	<-done
	return nil
}

// rtuStream processes RTU frames on a serial stream: <addr><fn><payload><crc16>.
// Only the read-only function codes HandlePDU understands are ever
// exercised here; a frame with any other function code is dropped
// without a reply (unlike the TCP path, which answers with an
// illegal-function exception).
func (s *Server) rtuStream(rw io.ReadWriter) {
	for {
		head := make([]byte, 2)
		if _, err := io.ReadFull(rw, head); err != nil {
			return
		}
		addr, fn := head[0], head[1]

		var body []byte
		switch fn {
		case fnReadCoils, fnReadDiscreteInputs, fnReadHoldingRegs, fnReadInputRegs:
			rest := make([]byte, 6) // start(2) + qty(2) + crc(2)
			if _, err := io.ReadFull(rw, rest); err != nil {
				return
			}
			req := append([]byte{addr, fn}, rest[:4]...)
			if crc16Modbus(req) != binary.LittleEndian.Uint16(rest[4:]) {
				continue
			}
			body = rest[:4]
		default:
			// Unknown function: no reliable way to know payload length,
			// so the frame is dropped and framing resumes on the next byte.
			continue
		}

		pdu := append([]byte{fn}, body...)
		respPDU := s.HandlePDU(pdu)
		out := append([]byte{addr}, respPDU...)
		tail := make([]byte, 2)
		binary.LittleEndian.PutUint16(tail, crc16Modbus(out))
		out = append(out, tail...)
		_, _ = rw.Write(out)
	}
}

// crc16Modbus computes the standard Modbus RTU CRC-16, adapted verbatim
// from cmd/server/main.go's crc16Modbus (the algorithm has one correct
// form; there is nothing to generalize here).
func crc16Modbus(data []byte) uint16 {
	var crc uint16 = 0xFFFF
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc = crc >> 1
			}
		}
	}
	return crc
}
