// Command catalog-projection keeps the PostgreSQL catalog in step with
// published pilot products.
package main

import (
	"os"

	"github.com/xenking/pilot-catalog/internal/app"
)

func main() {
	app.Run(app.CatalogProjection, os.Args[1:])
}
