// File: cmd/seed/main.go
//
// Seeds the default plan catalog. Safe to run repeatedly: existing plans are
// left untouched.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"saas-subscription-backend/internal/config"
	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/model"
	"saas-subscription-backend/internal/domain/ports/repository"
	pg "saas-subscription-backend/internal/infra/db/postgres"
)

var defaultPlans = []struct {
	Name        string
	Description string
	PriceCents  int64
	Interval    model.BillingInterval
	PriceEnv    string // env var carrying the provider price id
}{
	{"Starter Plan", "Basic plan with essential features", 2900, model.IntervalMonth, "STRIPE_PRICE_STARTER"},
	{"Pro", "Professional plan with all features", 7900, model.IntervalMonth, "STRIPE_PRICE_PRO"},
	{"Pro Yearly", "Professional plan billed yearly", 79000, model.IntervalYear, "STRIPE_PRICE_PRO_YEARLY"},
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planRepo := pg.NewPlanRepo(pool)

	existing, err := planRepo.ListActive(ctx, repository.NoTX, 0, 100)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Fatalf("list plans: %v", err)
	}
	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[p.Name] = true
	}

	created := 0
	for _, seed := range defaultPlans {
		if known[seed.Name] {
			fmt.Printf("plan %q already exists, skipping\n", seed.Name)
			continue
		}
		plan, err := model.NewPlan(ulid.Make().String(), seed.Name, seed.Description, seed.PriceCents, seed.Interval, os.Getenv(seed.PriceEnv))
		if err != nil {
			log.Fatalf("build plan %q: %v", seed.Name, err)
		}
		if err := planRepo.Save(ctx, repository.NoTX, plan); err != nil {
			log.Fatalf("save plan %q: %v", seed.Name, err)
		}
		fmt.Printf("created plan %q (%d cents / %s)\n", plan.Name, plan.PriceCents, plan.Interval)
		created++
	}
	fmt.Printf("done, %d plans created\n", created)
}
