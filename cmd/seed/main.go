// Command seed creates the marketplace schema and loads products from a JSON
// file into the product table.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/rojasecr/MarketplaceQL/config"
	"github.com/rojasecr/MarketplaceQL/internal/adapter/storage"
)

type seedProduct struct {
	Title          string `json:"title"`
	Price          int    `json:"price"`
	InventoryCount int    `json:"inventory_count"`
}

func main() {
	file := flag.String("file", "products.json", "path to the product seed file")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.LoadEnv()

	ctx := context.Background()

	db, err := sqlx.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	for _, stmt := range strings.Split(storage.Schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatalf("failed to apply schema: %v", err)
		}
	}
	log.Println("schema applied")

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("failed to read %s: %v", *file, err)
	}

	var products []seedProduct
	if err := json.Unmarshal(data, &products); err != nil {
		log.Fatalf("failed to parse %s: %v", *file, err)
	}

	for _, p := range products {
		if p.Title == "" || p.Price < 0 || p.InventoryCount < 0 {
			log.Fatalf("invalid product record: %+v", p)
		}
		_, err := db.ExecContext(ctx, `
			INSERT INTO products (id, title, price, inventory_count)
			VALUES (?, ?, ?, ?)`,
			uuid.NewString(), p.Title, p.Price, p.InventoryCount,
		)
		if err != nil {
			log.Fatalf("failed to insert product %q: %v", p.Title, err)
		}
	}
	log.Printf("seeded %d products", len(products))
}
