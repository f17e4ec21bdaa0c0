package main

import (
	"os"

	"github.com/helheim/content_ranker/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
