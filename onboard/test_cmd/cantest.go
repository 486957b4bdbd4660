package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/CodedInternet/goshooter/onboard/canbus"
	"github.com/CodedInternet/goshooter/onboard/hardware"
)

// cantest asks a single motor controller for its firmware version and optionally clears its faults.
func main() {
	ifname := flag.String("bus", "can0", "CAN interface the controllers are on")
	id := flag.Uint("id", 1, "CAN id of the motor controller")
	clearFaults := flag.Bool("clear", false, "Clear sticky faults after the version check")
	flag.Parse()

	bus, err := canbus.NewCANBus(*ifname)
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	node := hardware.NewMotorControllerNode(bus, uint32(*id))

	version, err := node.CheckVersion()
	if err != nil {
		log.Fatalf("node %d: %v", *id, err)
	}
	fmt.Printf("Success! Working with node %d version %s\n", *id, version)

	if *clearFaults {
		if err := node.ClearFaults(); err != nil {
			log.Fatalf("node %d: clearing faults: %v", *id, err)
		}
		fmt.Println("Faults cleared")
	}
}
