// Command timetable prints the café timetable for a file of orders.
//
//	timetable -f orders.yaml [-serve numbered] [-json] [-config cafe.yaml]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"cafesched/internal/buildinfo"
	"cafesched/internal/config"
	"cafesched/internal/integrations"
	"cafesched/internal/logx"
	"cafesched/internal/schedule"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "timetable:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("timetable", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("f", "", "orders file (.yaml, .yml or .csv)")
	serve := fs.String("serve", "", "serve style: per-order or numbered (overrides config)")
	asJSON := fs.Bool("json", false, "print the task list as JSON")
	cfgPath := fs.String("config", os.Getenv("CAFE_CONFIG"), "YAML config file")
	version := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *version {
		fmt.Fprintln(stdout, buildinfo.String())
		return nil
	}
	if *file == "" {
		fs.Usage()
		return fmt.Errorf("-f is required")
	}
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if *serve != "" {
		cfg.ServeStyle = *serve
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	// logs go to stderr so stdout stays a clean timetable
	log := logx.NewWriter(cfg.Log, stderr)

	src, err := integrations.Open(*file)
	if err != nil {
		return err
	}
	orders, err := src.FetchOrders(context.Background())
	if err != nil {
		return err
	}
	log.Debug().Str("source", src.Name()).Int("orders", len(orders)).Msg("orders loaded")

	sch := schedule.New(cfg.SchedulerOptions()...)
	for _, o := range orders {
		sch.AddOrder(o.OrderID, o.Items)
	}
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sch.Schedule())
	}
	_, err = fmt.Fprintln(stdout, sch.PrintableSchedule())
	return err
}
