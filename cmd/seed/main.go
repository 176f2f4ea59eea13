package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type connKey struct{}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Ledger database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	conn, err := pgx.Connect(c.Context, c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(c.Context); err != nil {
		conn.Close(c.Context)
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, connKey{}, conn)
	return nil
}

func closeDB(c *cli.Context) error {
	if conn, ok := c.Context.Value(connKey{}).(*pgx.Conn); ok && conn != nil {
		return conn.Close(context.Background())
	}
	return nil
}

func connFrom(c *cli.Context) (*pgx.Conn, error) {
	conn, ok := c.Context.Value(connKey{}).(*pgx.Conn)
	if !ok || conn == nil {
		return nil, fmt.Errorf("database connection not found in context")
	}
	return conn, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Seed a ledger database (products, sales, sale_items)",
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Create the ledger tables if they do not exist",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runSchema,
			},
			{
				Name:  "dev",
				Usage: "Load the development data set (Milk, Bread, Sugar and their sales)",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Truncate the ledger tables first",
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runDevSeed,
			},
			{
				Name:  "products",
				Usage: "Upsert products from a CSV or XLSX file (name,sku,price,stock_quantity,low_stock_threshold,description)",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Products CSV or XLSX file",
						Required: true,
						EnvVars:  []string{"SEED_PRODUCTS_FILE"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runProductsSeed,
			},
			{
				Name:   "all",
				Usage:  "Create the schema and load the development data set",
				Flags:  []cli.Flag{newDBURLFlag(), &cli.BoolFlag{Name: "reset"}},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					if err := runSchema(c); err != nil {
						return fmt.Errorf("error creating schema: %w", err)
					}
					if err := runDevSeed(c); err != nil {
						return fmt.Errorf("error loading dev data: %w", err)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
