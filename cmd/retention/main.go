// Command retention serves the account retention API and runs the daily deletion worker.
//
// With -run-now, retention runs the scheduler and reminder jobs once and exits,
// non-zero when any account failed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/xy-planning-network/retention/ranger"
)

func main() {
	runNow := flag.Bool("run-now", false, "run one scheduler and reminder batch, then exit")
	flag.Parse()

	rng, err := ranger.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *runNow {
		os.Exit(batch(rng))
	}

	if err := rng.Guide(); err != nil {
		rng.EmitLogger().Error(err.Error(), nil)
		os.Exit(1)
	}
}

func batch(rng *ranger.Ranger) int {
	defer func() { _ = rng.Shutdown() }()

	code := 0
	for name, res := range rng.RunNow(context.Background()) {
		rng.EmitLogger().Info(fmt.Sprintf("%s finished with %d failures", name, res.Failures()), nil)
		if res.Failures() > 0 {
			code = 1
		}
	}

	return code
}
