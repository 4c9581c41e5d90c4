package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/pwmc/pkg/config"
	"github.com/itohio/pwmc/pkg/link"
	"github.com/itohio/pwmc/pkg/sample"
	"github.com/itohio/pwmc/pkg/status"
	"github.com/itohio/pwmc/pkg/track"
)

// runHeadless logs every reading and lock changes until interrupted.
func runHeadless(cfg *config.Config, useMock bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return headless(ctx, cfg, newDevice(cfg, useMock), describe(cfg, useMock))
}

func headless(ctx context.Context, cfg *config.Config, device link.Device, name string) error {
	tracker := track.New(cfg)

	locked := false
	tracker.OnUpdate(func(samples []sample.Sample, locks []track.Lock) {
		now := tracker.Locked()
		if now == locked {
			return
		}
		locked = now
		if locked {
			l := locks[len(locks)-1]
			log.Printf("lock: probe follows generator at %.1f Hz (max error %.2f%%)", l.FrequencyHz, l.MaxErrorPercent)
		} else {
			log.Printf("lock lost")
		}
	})

	chain, err := startChain(cfg, device, tracker, func(r link.Reading) {
		log.Print(status.Line(r.Report))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Printf("Connected to %s", name)

	<-ctx.Done()
	closeChain(chain)
	log.Printf("Disconnected from %s", name)

	return nil
}
