package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/Mojinnn/PBL3-project/pkg/netwatch"
)

const defaultConfig = "./data/config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "merge":
		err = runtimeCommand("merge", os.Args[2:], (*netwatch.Runtime).RunMerger)
	case "serve":
		err = runtimeCommand("serve", os.Args[2:], (*netwatch.Runtime).Serve)
	case "run":
		err = runtimeCommand("run", os.Args[2:], (*netwatch.Runtime).Run)
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("netwatch %s: %v", cmd, err)
	}
}

func runtimeCommand(name string, args []string, run func(*netwatch.Runtime, context.Context) error) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfig, "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := netwatch.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rt, err := netwatch.NewRuntime(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return run(rt, ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfig, "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := netwatch.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s looks good: merged=%s every %s, api %s\n",
		*cfgPath, cfg.Stores.Merged, cfg.Merger.Interval, cfg.Query.Addr)
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

var statsTargets = []string{
	"netwatch_merged_rows_total",
	"netwatch_merger_pending_rows",
	"netwatch_merger_write_failures_total",
	"netwatch_source_available",
	"netwatch_api_requests_total",
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	values, err := scrape(resp.Body)
	if err != nil {
		return err
	}
	fmt.Printf("[%s] merged=%g pending=%g write_failures=%g sources_up=%g api_requests=%g\n",
		time.Now().Format(time.RFC3339),
		values["netwatch_merged_rows_total"],
		values["netwatch_merger_pending_rows"],
		values["netwatch_merger_write_failures_total"],
		values["netwatch_source_available"],
		values["netwatch_api_requests_total"],
	)
	return nil
}

// scrape sums every series of the tracked families across their labels.
func scrape(r io.Reader) (map[string]float64, error) {
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return nil, fmt.Errorf("parse metrics: %w", err)
	}

	out := make(map[string]float64, len(statsTargets))
	for _, name := range statsTargets {
		mf, ok := families[name]
		if !ok {
			continue
		}
		var sum float64
		for _, m := range mf.GetMetric() {
			sum += sampleValue(mf.GetType(), m)
		}
		out[name] = sum
	}
	return out, nil
}

func sampleValue(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_UNTYPED:
		return m.GetUntyped().GetValue()
	}
	return 0
}

func printUsage() {
	fmt.Printf(`NetWatch CLI

Usage:
  netwatch <command> [flags]

Commands:
  merge      Run the merger, probes and metrics endpoint
  serve      Serve the dashboard query API
  run        Run merge and serve in one process
  validate   Load and validate a config file without starting anything
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  netwatch run -config ./data/config.yaml
  netwatch validate -config ./data/config.yaml
  netwatch stats -url http://localhost:9100/metrics -interval 1s
`)
}
