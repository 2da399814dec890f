package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/Mojinnn/PBL3-project/pkg/netwatch"
)

func main() {
	cfg, err := netwatch.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	callback := func(batch []netwatch.MergedRow) error {
		for _, row := range batch {
			fmt.Printf("%s latency=%s ms loss=%s%% packets=%s bytes=%s\n",
				row.Timestamp.Format("2006-01-02 15:04:05"),
				row.LatencyMs,
				row.LossPercent,
				row.TotalPkts,
				row.TotalBytes,
			)
		}
		return nil
	}

	rt, err := netwatch.NewRuntime(cfg, netwatch.WithSink(netwatch.NewCallbackSink("stdout", callback)))
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.RunMerger(ctx); err != nil {
		log.Fatalf("merger exited: %v", err)
	}
}
