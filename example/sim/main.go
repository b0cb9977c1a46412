// Runs a short acquisition against the simulated counter and prints what the
// presentation boundary receives.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	chowder "github.com/UCBoulder/clam-chowder-frequency-counter"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/adapters/sim"
)

type printPresenter struct{}

func (printPresenter) Publish(latest chowder.Sample, series *chowder.Series) {
	fmt.Printf("t=%.3fs f=%.3f Hz deadtime=%d ms (%d samples so far)\n",
		latest.Timestamp, latest.Frequency, latest.DeadtimeMillis, series.Len())
}

func (printPresenter) SetReferenceLock(locked bool) {
	fmt.Printf("external reference locked: %v\n", locked)
}

func main() {
	cfg := &chowder.Config{
		Transport:          chowder.TransportConfig{Kind: "sim"},
		PollIntervalMillis: 200,
		LogFile:            "./current_data.txt",
		Settings: func() chowder.Settings {
			s := chowder.UnknownSettings()
			s.Channel = 1
			s.InputImpedance = "1E6"
			s.InputCoupling = "AC"
			s.Ref = "INT"
			s.Attenuation = 0
			s.LPF = 0
			s.Display = 1
			s.GateTime = 100
			return s
		}(),
	}

	instrument := sim.New(
		sim.WithBaseFrequency(10e6),
		sim.WithJitter(0.2),
		sim.WithTimeScale(1),
	)

	rt, err := chowder.NewRuntime(cfg,
		chowder.WithTransport(instrument),
		chowder.WithPresenter(printPresenter{}),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rt.Run(ctx); err != nil {
		log.Fatal(err)
	}
	fmt.Println("acquisition finished; readings logged to", cfg.LogFile)
}
