package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	netwatch "github.com/Mojinnn/PBL3-project"
)

func main() {
	cfg, err := netwatch.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sink, batches, closeBatches := netwatch.NewChannelSink("fanout", 32)
	defer closeBatches()

	go fanoutWorker("alerts", batches)

	rt, err := netwatch.NewRuntime(cfg, netwatch.WithSink(sink))
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil {
		log.Fatalf("netwatch exited: %v", err)
	}
}

// fanoutWorker flags cycles whose packet loss crosses 5%.
func fanoutWorker(name string, batches <-chan []netwatch.MergedRow) {
	for batch := range batches {
		for _, row := range batch {
			if row.LossPercent.Valid && row.LossPercent.Value > 5 {
				fmt.Printf("[%s] %s loss %.1f%%\n", name, row.Timestamp.Format(time.RFC3339), row.LossPercent.Value)
			}
		}
	}
}
