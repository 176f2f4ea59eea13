package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/salesflow-analytics/internal/ledger"
	"github.com/andresuchdata/salesflow-analytics/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "ledger-stub",
		Usage: "Serve the development data set over the ledger REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address",
				Value:   ":8080",
				EnvVars: []string{"LEDGER_STUB_ADDR"},
			},
			&cli.BoolFlag{
				Name:    "require-token",
				Usage:   "Reject requests without a bearer token",
				EnvVars: []string{"LEDGER_STUB_REQUIRE_TOKEN"},
			},
		},
		Action: func(c *cli.Context) error {
			srv := &http.Server{
				Addr:              c.String("addr"),
				Handler:           newRouter(ledger.NewMock(nil), c.Bool("require-token")),
				ReadHeaderTimeout: 5 * time.Second,
			}
			logger.Log.Info().Str("addr", srv.Addr).Msg("Ledger stub listening on /api/v1")
			return srv.ListenAndServe()
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
