// Command seed-pilots creates the sample pilot products of db/seed.
package main

import (
	"os"

	"github.com/xenking/pilot-catalog/internal/app"
)

func main() {
	app.Run(app.SeedPilots, os.Args[1:])
}
