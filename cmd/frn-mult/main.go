// Command frn-mult runs the multiplication-and-check benchmark: every
// party shares deterministic fake inputs, multiplies them with the full
// protocol and verifies the batched transcript at the end.
package main

import (
	"bufio"
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/anderspkd/ccs-DEN22/pkg/corr"
	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/anderspkd/ccs-DEN22/pkg/network"
	"github.com/anderspkd/ccs-DEN22/pkg/prg"
	"github.com/anderspkd/ccs-DEN22/pkg/sharing"
	"github.com/anderspkd/ccs-DEN22/protocols/check"
	"github.com/anderspkd/ccs-DEN22/protocols/mult"
	"github.com/rs/zerolog"
)

func main() {
	var (
		n        = flag.Int("n", 4, "number of parties (4..16)")
		id       = flag.Int("id", 0, "this party's id")
		mults    = flag.Int("mults", 100, "number of multiplications")
		basePort = flag.Int("base-port", network.DefaultBasePort, "base port for the pairwise sockets")
		hosts    = flag.String("hosts", "", "connection file with one host per line (default: all local)")
		fieldArg = flag.String("field", "mp61", "field to compute over: mp61 or mp127")
		verbose  = flag.Bool("v", false, "log protocol timings")
	)
	flag.Parse()

	if err := run(*n, *id, *mults, *basePort, *hosts, *fieldArg, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "frn-mult: %v\n", err)
		os.Exit(1)
	}
}

func run(n, id, mults, basePort int, hostsPath, fieldName string, verbose bool) error {
	if n < 4 || n > 16 {
		return fmt.Errorf("need 4 <= n <= 16, got %d", n)
	}
	if id < 0 || id >= n {
		return fmt.Errorf("party id %d out of range", id)
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

	xs, ys, err := fakeInputs(rep, id, mults)
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
	correlator, err := corr.Setup(net, rep, g)
	if err != nil {
		return err
	}

	cd := mult.NewCheckData(t)
	multp := mult.New(net, rep, man, correlator, cd, log)
	if err := multp.PrepareMany(xs, ys); err != nil {
		return err
	}
	if _, err := multp.Run(); err != nil {
		return err
	}

	checkp := check.New(net, rep, man, cd, log)
	if err := checkp.Run(); err != nil {
		return err
	}

	fmt.Printf("verified %d multiplications\ncommunication summary for %d:\n%s",
		cd.Counter, id, net.Stats())
	return nil
}

// fakeInputs shares small deterministic values from a seed common to all
// parties so every party ends up with consistent shares without an input
// round.
func fakeInputs(rep *sharing.Replicator, id, count int) (xs, ys []sharing.Share, err error) {
	f := rep.Field()
	g, err := prg.New([]byte("frn-mult fake inputs"))
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < count; i++ {
		xs = append(xs, rep.Share(f.FromUint64(uint64(i+1)), g)[id])
		ys = append(ys, rep.Share(f.FromUint64(uint64(i+2)), g)[id])
	}
	return xs, ys, nil
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
