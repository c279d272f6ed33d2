package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"freqgen/core"
	"freqgen/host/remote"
)

var (
	device  = flag.String("device", "/dev/rfcomm0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	verbose = flag.Bool("verbose", false, "Enable verbose output")
)

func newLogger() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	if !*verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: logger: %v\n", err)
		os.Exit(1)
	}
	return log.Sugar()
}

func main() {
	flag.Parse()
	log := newLogger()
	defer log.Sync()

	fmt.Println("FreqGen Host - remote slider for the frequency generator")
	fmt.Println("=========================================================")
	fmt.Println()

	fmt.Printf("Connecting to instrument on %s...\n", *device)
	client, err := remote.Dial(*device, *baud, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	desc, err := client.Identify()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to retrieve descriptor: %v\n", err)
		os.Exit(1)
	}
	printDescriptor(desc)

	// track the slider locally so up/down don't need a round trip
	position := desc.Controls["position"].Default
	if st, err := client.State(); err == nil {
		position = st.Position
		printState(st)
	}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]

		switch cmd {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printHelp()

		case "desc", "descriptor":
			printDescriptor(desc)

		case "raw":
			raw := client.DescriptorJSON()
			fmt.Printf("Raw descriptor (%d bytes):\n%s\n", len(raw), string(raw))

		case "table":
			printTable()

		case "pos":
			p, err := intArg(parts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			position = p
			setAndShow(client, position)

		case "freq":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "Error: usage: freq <hz>")
				continue
			}
			hz, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			position = int(core.PositionFor(hz))
			setAndShow(client, position)

		case "up", "down":
			step := 1
			if len(parts) > 1 {
				if step, err = strconv.Atoi(parts[1]); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					continue
				}
			}
			if cmd == "down" {
				step = -step
			}
			position = int(core.ClampPosition(position + step))
			setAndShow(client, position)

		case "state":
			st, err := client.State()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			position = st.Position
			printState(st)

		case "watch":
			n := 10
			if len(parts) > 1 {
				if n, err = strconv.Atoi(parts[1]); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					continue
				}
			}
			watch(client, n)

		case "events":
			events, err := client.Events()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			for _, evt := range events {
				fmt.Printf("  %10d us  %-12s %d\n", evt.Clock, core.EventName(evt.Type), evt.Value)
			}
			fmt.Printf("%d events\n", len(events))

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", cmd)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func intArg(parts []string) (int, error) {
	if len(parts) < 2 {
		return 0, fmt.Errorf("usage: %s <n>", parts[0])
	}
	return strconv.Atoi(parts[1])
}

func setAndShow(client *remote.Client, p int) {
	hz, _ := core.Lookup(core.ClampPosition(p))
	fmt.Printf("Position %d (%g Hz)\n", p, hz)
	if err := client.SetPosition(p); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	// the loop applies the position on its next pass
	time.Sleep(50 * time.Millisecond)
	if st, err := client.State(); err == nil {
		printState(st)
	}
}

func watch(client *remote.Client, n int) {
	for i := 0; i < n; i++ {
		st, err := client.NextState(3 * time.Second)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		printState(st)
	}
}

func printState(st remote.State) {
	fmt.Printf("  [%4d] %s\n", st.Position, st.Output)
	fmt.Printf("         %s\n", st.Input)
}

func printDescriptor(desc *remote.Descriptor) {
	fmt.Printf("\nInstrument: %s (%s)\n", desc.Name, desc.Version)
	if c, ok := desc.Controls["position"]; ok {
		fmt.Printf("  slider %d..%d, default %d\n", c.Min, c.Max, c.Default)
	}
	fmt.Printf("  %d commands, %d responses\n", len(desc.Commands), len(desc.Responses))
	for k, v := range desc.Config {
		fmt.Printf("  %s = %s\n", k, v)
	}
	fmt.Println()
}

func printTable() {
	for i, hz := range core.Frequencies() {
		fmt.Printf("%5d %12g", i+int(core.PositionMin), hz)
		if i%4 == 3 {
			fmt.Println()
		}
	}
	fmt.Println()
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help           - Show this help message")
	fmt.Println("  desc           - Print descriptor summary")
	fmt.Println("  raw            - Print raw descriptor JSON")
	fmt.Println("  table          - Print the frequency table")
	fmt.Println("  pos <n>        - Move the slider to position n")
	fmt.Println("  freq <hz>      - Move to the first position at or above hz")
	fmt.Println("  up/down [n]    - Step the slider")
	fmt.Println("  state          - Show the instrument display")
	fmt.Println("  watch [n]      - Print the next n pushed states")
	fmt.Println("  events         - Dump the instrument event ring")
	fmt.Println("  quit/exit/q    - Exit the program")
	fmt.Println()
}
