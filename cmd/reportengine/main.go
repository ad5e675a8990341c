// reportengine runs declarative reports against SQL databases.
package main

import (
	"os"

	"github.com/hupe1980/reportengine/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
