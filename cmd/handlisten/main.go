// Command handlisten receives handstream packets and logs what they carry.
//
// Usage: handlisten [addr]   (default ":12345")
package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/ayusman/handstream/internal/detector"
	"github.com/ayusman/handstream/internal/wire"
)

const defaultAddr = ":12345"

func main() {
	listen := defaultAddr
	if len(os.Args) > 1 {
		listen = os.Args[1]
	}

	addr, err := net.ResolveUDPAddr("udp", listen)
	if err != nil {
		log.Fatal(err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	fmt.Printf("Listening for hand packets on %s\n", conn.LocalAddr())

	var packetCount int64
	var byteCount int64

	// Statistics goroutine
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			packets := atomic.SwapInt64(&packetCount, 0)
			bytes := atomic.SwapInt64(&byteCount, 0)
			if packets > 0 {
				fmt.Printf("Received: %d packets/sec, %.1f KB/sec\n",
					packets, float64(bytes)/1024)
			}
		}
	}()

	buffer := make([]byte, 65536)
	for {
		n, from, err := conn.ReadFromUDP(buffer)
		if err != nil {
			log.Printf("Read error: %v", err)
			continue
		}

		atomic.AddInt64(&packetCount, 1)
		atomic.AddInt64(&byteCount, int64(n))

		summary, err := describe(buffer[:n])
		if err != nil {
			log.Printf("Bad packet from %s: %v", from, err)
			continue
		}
		log.Printf("%s: %s", from, summary)
	}
}

// describe decodes a datagram and summarises its hands.
func describe(data []byte) (string, error) {
	codec := wire.Sniff(data)
	msg, err := codec.Decode(data)
	if err != nil {
		return "", err
	}

	hands := wire.Split(msg.Coords, detector.NumLandmarks)
	summary := fmt.Sprintf("%s, %d hands, %d points", codec.Name(), len(hands), msg.Coords.Points())
	if msg.Seq > 0 {
		summary += fmt.Sprintf(", seq %d", msg.Seq)
	}
	if len(hands) > 0 && len(hands[0]) > detector.IndexTip {
		tip := hands[0][detector.IndexTip]
		summary += fmt.Sprintf(", index tip (%d, %d, %d)", tip.X, tip.Y, tip.Z)
	}
	return summary, nil
}
