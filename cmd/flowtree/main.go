// flowtree inspects archived flow runs and runs a demo checkout flow.
//
// Usage:
//
//	flowtree demo [--vip] [--fail-gateway] --db runs.db
//	flowtree list [--root NAME] [--status STATUS] [--limit N] --db runs.db
//	flowtree show RUN_ID --db runs.db
//	flowtree tree RUN_ID --db runs.db
//	flowtree trail RUN_ID --db runs.db
//	flowtree delete RUN_ID... --db runs.db
//
// The archive comes from --db when set, otherwise from the archive section
// of the --config settings file.
package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
