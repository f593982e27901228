// Command frn-input runs the input benchmark: one designated inputter
// injects a batch of values and every party ends up with threshold
// shares of them.
package main

import (
	"bufio"
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/anderspkd/ccs-DEN22/pkg/network"
	"github.com/anderspkd/ccs-DEN22/pkg/prg"
	"github.com/anderspkd/ccs-DEN22/pkg/sharing"
	"github.com/anderspkd/ccs-DEN22/protocols/input"
	"github.com/rs/zerolog"
)

func main() {
	var (
		n        = flag.Int("n", 4, "number of parties (4..16)")
		id       = flag.Int("id", 0, "this party's id")
		inputs   = flag.Int("inputs", 100, "number of inputs")
		inputter = flag.Int("inputter", 0, "id of the party providing inputs")
		basePort = flag.Int("base-port", network.DefaultBasePort, "base port for the pairwise sockets")
		hosts    = flag.String("hosts", "", "connection file with one host per line (default: all local)")
		fieldArg = flag.String("field", "mp61", "field to compute over: mp61 or mp127")
		verbose  = flag.Bool("v", false, "log protocol timings")
	)
	flag.Parse()

	if err := run(*n, *id, *inputs, *inputter, *basePort, *hosts, *fieldArg, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "frn-input: %v\n", err)
		os.Exit(1)
	}
}

func run(n, id, inputs, inputter, basePort int, hostsPath, fieldName string, verbose bool) error {
	if n < 4 || n > 16 {
		return fmt.Errorf("need 4 <= n <= 16, got %d", n)
	}
	if id < 0 || id >= n {
		return fmt.Errorf("party id %d out of range", id)
	}
	if inputter < 0 || inputter >= n {
		return fmt.Errorf("inputter id %d out of range", inputter)
	}
	t := (n - 1) / 3

	f, err := selectField(fieldName)
	if err != nil {
		return err
	}

	log := zerolog.Nop()
	if verbose {
		log = zerolog.New(zerolog.NewConsoleWriter()).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	}

	rep, err := sharing.NewReplicator(f, n, t)
	if err != nil {
		return err
	}
	man, err := sharing.NewManipulator(f, id, n, t)
	if err != nil {
		return err
	}

	var hostList []string
	if hostsPath != "" {
		if hostList, err = readHosts(hostsPath, n); err != nil {
			return err
		}
	}
	net, err := network.DialTCP(network.TCPConfig{
		Party:     id,
		Size:      n,
		BasePort:  basePort,
		Hosts:     hostList,
		Field:     f,
		ShareSize: rep.ShareSize(),
		Logger:    log,
	})
	if err != nil {
		return err
	}
	defer net.Close()

	seed := make([]byte, prg.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return err
	}
	g, err := prg.New(seed)
	if err != nil {
		return err
	}

	setup := input.NewSetup(net, rep, g)
	correlator, err := setup.Run()
	if err != nil {
		return err
	}

	in := input.New(net, man, correlator, log)
	if id == inputter {
		secrets := make([]field.Element, inputs)
		for i := range secrets {
			secrets[i] = f.FromUint64(uint64(i))
		}
		in.PrepareMany(secrets)
	} else {
		in.PrepareToReceiveN(inputter, inputs)
	}
	shares, err := in.Run()
	if err != nil {
		return err
	}

	fmt.Printf("holding %d input shares\ncommunication summary for %d:\n%s",
		len(shares[inputter]), id, net.Stats())
	return nil
}

func selectField(name string) (field.Field, error) {
	switch strings.ToLower(name) {
	case "mp61":
		return field.Mersenne61{}, nil
	case "mp127":
		return field.Mersenne127{}, nil
	default:
		return nil, fmt.Errorf("unknown field %q", name)
	}
}

func readHosts(path string, n int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var hosts []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			hosts = append(hosts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(hosts) != n {
		return nil, fmt.Errorf("connection file has %d hosts, need %d", len(hosts), n)
	}
	return hosts, nil
}
