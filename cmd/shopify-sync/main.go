// Command shopify-sync pushes published pilot products to Shopify.
package main

import (
	"os"

	"github.com/xenking/pilot-catalog/internal/app"
)

func main() {
	app.Run(app.ShopifySync, os.Args[1:])
}
