// Command api-server accepts pilot product intakes and serves the catalog.
package main

import (
	"os"

	"github.com/xenking/pilot-catalog/internal/app"
)

func main() {
	app.Run(app.APIServer, os.Args[1:])
}
