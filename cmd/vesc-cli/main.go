package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/LiamBindle/govesc/pkg/telemetry"
	"github.com/LiamBindle/govesc/pkg/transport"
	"github.com/LiamBindle/govesc/pkg/vesc"
)

var (
	serialDevice = flag.String("serial", "/dev/ttyUSB0", "Serial device path")
	baudRate     = flag.Int("baud", 115200, "Serial baud rate")
	legacySerial = flag.Bool("legacy-serial", false, "Use the tarm/serial driver instead of go.bug.st/serial")
	canID        = flag.Int("can-id", -1, "Forward commands to this CAN id instead of the directly-attached VESC (-1 = direct)")
	heartbeat    = flag.Bool("heartbeat", true, "Keep the controller alive with a background heartbeat")

	redisAddr = flag.String("redis-addr", "", "Redis server address for telemetry publishing (empty disables telemetry)")
	redisPass = flag.String("redis-pass", "", "Redis password")
	redisDB   = flag.Int("redis-db", 0, "Redis database number")

	cmd  = flag.String("cmd", "values", "Command to run once connected: values, version, terminal")
	term = flag.String("term", "", "Terminal command string, used when -cmd=terminal")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("Starting govesc CLI")
	log.Printf("Serial device: %s", *serialDevice)
	log.Printf("Baud rate: %d", *baudRate)

	port, err := openPort()
	if err != nil {
		log.Fatalf("Failed to open transport: %v", err)
	}
	multi := vesc.NewMultiController(port)

	var id *uint8
	if *canID >= 0 {
		v := uint8(*canID)
		id = &v
		log.Printf("Forwarding to CAN id %d", v)
	}
	controller := multi.Controller(id)

	if *heartbeat {
		controller.StartHeartbeat()
		log.Printf("Heartbeat started")
	}

	var sink *telemetry.Sink
	if *redisAddr != "" {
		key := "vesc:direct"
		if id != nil {
			key = "vesc:can"
		}
		sink, err = telemetry.NewSink(*redisAddr, *redisPass, *redisDB, key)
		if err != nil {
			log.Printf("Warning: telemetry disabled, failed to connect to Redis: %v", err)
		} else {
			log.Printf("Connected to Redis for telemetry at %s", *redisAddr)
			defer sink.Close()
		}
	}

	runCommand(controller, sink)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("Shutting down...")
	controller.Close()
}

func openPort() (vesc.Port, error) {
	if *legacySerial {
		return transport.NewLegacySerialPort(*serialDevice, *baudRate)
	}
	return transport.NewSerialPort(*serialDevice, *baudRate)
}

func runCommand(c *vesc.Controller, sink *telemetry.Sink) {
	ctx := context.Background()

	switch *cmd {
	case "values":
		msg, err := c.GetMeasurements(ctx)
		if err != nil {
			log.Printf("get_values failed: %v", err)
			return
		}
		log.Printf("Measurements: %+v", msg.Fields)
		if sink != nil {
			if err := sink.PublishMeasurements(msg); err != nil {
				log.Printf("telemetry publish failed: %v", err)
			}
		}
	case "version":
		msg, err := c.GetFirmwareVersion(ctx)
		if err != nil {
			log.Printf("fw_version failed: %v", err)
			return
		}
		log.Printf("Firmware: comm=%v major=%v minor=%v",
			msg.Get("comm_fw_version"), msg.Get("fw_version_major"), msg.Get("fw_version_minor"))
	case "terminal":
		out, err := c.TerminalCmd(ctx, *term)
		if err != nil {
			log.Printf("terminal_cmd failed: %v", err)
			return
		}
		log.Printf("Terminal output:\n%s", out)
	default:
		log.Printf("Unknown -cmd %q", *cmd)
	}
}
