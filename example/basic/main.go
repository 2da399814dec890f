package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	netwatch "github.com/Mojinnn/PBL3-project"
)

func main() {
	cfg, err := netwatch.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	rt, err := netwatch.NewRuntime(cfg)
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil {
		log.Fatalf("netwatch exited: %v", err)
	}
}
