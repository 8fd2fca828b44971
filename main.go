// Command pos-server runs the point-of-sale back end.
//
// It serves the catalog, the ledger and the bank over HTTP and performs
// purchases and refunds against a BoltDB file. Run with:
//
//	go run . serve -c config.yml
//
// The seed and export commands move state between the database and the
// items.json, bank.json and transactions.json documents.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"go.uber.org/zap"

	"github.com/14zooboy14/Point-Of-Sales-system-POS/config"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/logger"
)

var (
	app        = kingpin.New("pos-server", "Point-of-sale back end.")
	configPath = app.Flag("config", "Path to the application config file").Short('c').Default("config.yml").String()

	serveCmd = app.Command("serve", "Run the HTTP server.").Default()

	seedCmd          = app.Command("seed", "Replace the stored state with the given JSON documents.")
	seedItems        = seedCmd.Flag("items", "Catalog document.").Default("items.json").String()
	seedBank         = seedCmd.Flag("bank", "Bank document.").Default("bank.json").String()
	seedTransactions = seedCmd.Flag("transactions", "Ledger document. Skipped when it does not exist.").Default("transactions.json").String()

	exportCmd = app.Command("export", "Write the stored state as JSON documents.")
	exportDir = exportCmd.Flag("dir", "Directory to write into.").Default(".").String()
)

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	k, cfg, err := config.Parse(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if !cfg.IsProdMode {
		printConfig(k)
	}

	log, err := logger.New(cfg.Logger.Level, cfg.Application)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	switch cmd {
	case serveCmd.FullCommand():
		err = serve(cfg, log)
	case seedCmd.FullCommand():
		err = seed(cfg, log, seedPaths{items: *seedItems, bank: *seedBank, transactions: *seedTransactions})
	case exportCmd.FullCommand():
		err = export(cfg, log, *exportDir)
	}
	if err != nil {
		log.Fatal(cmd+" failed", zap.Error(err))
	}
}

// printConfig dumps the effective configuration with secrets masked.
func printConfig(k *koanf.Koanf) {
	masked := k.Copy()
	if masked.String("changelog.redis.password") != "" {
		_ = masked.Load(confmap.Provider(map[string]interface{}{"changelog.redis.password": "****"}, "."), nil)
	}
	masked.Print()
}
