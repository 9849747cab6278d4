package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/gobwas/avl"
	"golang.org/x/sync/errgroup"

	"github.com/chashlab/hashring"
)

func main() {
	var (
		def = config{
			Hash:        hashring.HashStrong,
			Servers:     10,
			Objects:     1e5,
			Parallelism: runtime.NumCPU(),
		}
		lo      int    // Min replica count.
		hi      int    // Max replica count.
		rs      string // Comma-separated replica counts list.
		cfgPath string // Optional scenario file.
		csv     bool

		verbose bool
		silent  bool
	)
	flag.IntVar(&def.Parallelism,
		"parallelism", def.Parallelism,
		"number of concurrent processors",
	)
	flag.IntVar(&def.Objects,
		"objects", def.Objects,
		"number of objects to spread on ring",
	)
	flag.IntVar(&def.Servers,
		"servers", def.Servers,
		"number of servers to place on ring",
	)
	flag.StringVar(&def.Hash,
		"hash", def.Hash,
		"hash function to be used (strong, fast or xxhash)",
	)
	flag.IntVar(&lo,
		"lo", 0,
		"replica count to start from",
	)
	flag.IntVar(&hi,
		"hi", 0,
		"replica count to end at",
	)
	flag.StringVar(&rs,
		"replicas", "1,10,100",
		"comma-separated list of replica counts",
	)
	flag.StringVar(&cfgPath,
		"config", "",
		"path to yaml scenario file; explicitly set flags take precedence",
	)
	flag.BoolVar(&verbose,
		"v", false,
		"be verbose",
	)
	flag.BoolVar(&silent,
		"s", false,
		"be silent",
	)
	flag.BoolVar(&csv,
		"csv", true,
		"print csv to standard output",
	)

	flag.Parse()

	logf := func(f string, args ...interface{}) {
		if !verbose {
			return
		}
		log.Printf(f, args...)
	}
	printf := func(f string, args ...interface{}) {
		if silent {
			return
		}
		fmt.Fprintf(os.Stderr, f, args...)
	}

	// Prepare list of replica counts. We merge here range (from `lo` to
	// `hi`) with manually specified counts in `rs`.
	// We use tree to autofix duplicates (if any).
	var replicas avl.Tree
	for _, s := range strings.Split(rs, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			log.Fatalf("malformed replica count %q: %v", s, err)
		}
		replicas, _ = replicas.Insert(factor(n))
	}
	for n := lo; n < hi; n++ {
		replicas, _ = replicas.Insert(factor(n))
	}
	replicas.InOrder(func(x avl.Item) bool {
		def.Replicas = append(def.Replicas, int(x.(factor)))
		return true
	})

	cfg := def
	if cfgPath != "" {
		file, err := loadConfig(cfgPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = file.merge(def)
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "parallelism":
				cfg.Parallelism = def.Parallelism
			case "objects":
				cfg.Objects = def.Objects
			case "servers":
				cfg.Servers = def.Servers
			case "hash":
				cfg.Hash = def.Hash
			case "replicas", "lo", "hi":
				cfg.Replicas = def.Replicas
			}
		})
	}
	if err := cfg.validate(); err != nil {
		log.Fatal(err)
	}
	logf("%d replica counts are ready", len(cfg.Replicas))

	servers, objects := prepare(cfg, logf)

	var (
		mu      sync.Mutex
		results avl.Tree
	)
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(cfg.Parallelism)
	for _, n := range cfg.Replicas {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := measure(cfg.Hash, n, servers, objects)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			results, _ = results.Insert(r)
			printf(".")
			if n := results.Size(); n%80 == 0 {
				f := len(cfg.Replicas)
				printf(
					"%d/%d(%.1f%%)\n",
					n, f,
					float64(n)/float64(f)*100, // Progress percentage.
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	printf("\n")

	tw := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
	if csv {
		fmt.Fprintf(tw, "replicas,\tstddev%%,\tbalance,\tadd-moved%%,\tremove-moved%%,\tlatency-ms\n")
	}
	results.InOrder(func(x avl.Item) bool {
		r := x.(result)
		devPct := r.stats.StdDev / float64(cfg.Objects) * 100
		logf(
			"%04d: stddev=%.2f(%.2f%%) balance=%.2f added=%.2f%% removed=%.2f%% latency=%s\n",
			r.replicas,
			r.stats.StdDev, devPct,
			r.stats.Balance,
			r.added*100, r.removed*100,
			r.latency,
		)
		if csv {
			fmt.Fprintf(tw,
				"%d,\t%.4f,\t%.4f,\t%.2f,\t%.2f,\t%.2f\n",
				r.replicas, devPct, r.stats.Balance,
				r.added*100, r.removed*100,
				r.latency.Seconds()*1000,
			)
		}
		return true
	})
	tw.Flush()

	printf("OK")
}

// prepare returns unique random server addresses and object keys.
func prepare(cfg config, logf func(string, ...interface{})) (servers, objects []string) {
	servers = make([]string, cfg.Servers)
	seenSrv := make(map[string]bool)
	for i := 0; i < cfg.Servers; {
		var b [4]byte
		_, err := rand.Read(b[:])
		if err != nil {
			panic(err)
		}
		s := net.IPv4(b[0], b[1], b[2], b[3]).String()
		if seenSrv[s] {
			logf("#%d server duplicated; repeat", i)
			continue
		}
		seenSrv[s] = true
		servers[i] = s
		i++
	}
	logf("%d servers are ready", len(servers))

	objects = make([]string, cfg.Objects)
	seenObj := make(map[string]bool)
	for i := 0; i < cfg.Objects; {
		s := fmt.Sprintf("%016x", rand.Int63n(math.MaxInt64))
		if seenObj[s] {
			logf("#%d object duplicated; repeat", i)
			continue
		}
		seenObj[s] = true
		objects[i] = s
		i++
	}
	logf("%d objects are ready", len(objects))

	return servers, objects
}

// measure builds a ring of servers having n replicas each and reports
// distribution of objects over it, together with fractions of objects
// moved when one more server is added and when one server is removed then.
func measure(hash string, n int, servers, objects []string) (res result, err error) {
	r, err := hashring.New(hash)
	if err != nil {
		return res, err
	}
	res.replicas = n

	start := time.Now()
	for _, s := range servers {
		if err := r.Add(hashring.NewNode(s, n)); err != nil {
			return res, err
		}
	}
	res.latency = time.Since(start)

	initial := r.Distribution(objects)
	res.stats = initial.Stats()

	if err := r.Add(hashring.NewNode("extra", n)); err != nil {
		return res, err
	}
	grown := r.Distribution(objects)
	res.added = hashring.MovementRatio(initial, grown)

	if _, removed := r.Remove(servers[0]); !removed {
		return res, fmt.Errorf("server %s is not on the ring", servers[0])
	}
	res.removed = hashring.MovementRatio(grown, r.Distribution(objects))

	return res, nil
}

type result struct {
	replicas int
	latency  time.Duration
	stats    hashring.Stats
	added    float64
	removed  float64
}

func (r result) Compare(x avl.Item) int {
	return r.replicas - x.(result).replicas
}

type factor int

func (f factor) Compare(x avl.Item) int {
	return int(f - x.(factor))
}
