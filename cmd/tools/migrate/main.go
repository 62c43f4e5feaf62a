package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/noah-isme/backend-commission/internal/db/migrations"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate [-database URL] up | down N | version")
	flag.PrintDefaults()
}

func main() {
	_ = godotenv.Load()

	dbURL := flag.String("database", os.Getenv("DATABASE_URL"), "postgres connection url")
	flag.Usage = usage
	flag.Parse()

	if *dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set")
		os.Exit(2)
	}
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	switch flag.Arg(0) {
	case "up":
		if err := migrations.Up(*dbURL); err != nil {
			fail(err)
		}
		fmt.Println("migrations applied")
	case "down":
		steps := 1
		if flag.NArg() > 1 {
			n, err := strconv.Atoi(flag.Arg(1))
			if err != nil {
				fail(fmt.Errorf("invalid step count %q", flag.Arg(1)))
			}
			steps = n
		}
		if err := migrations.Down(*dbURL, steps); err != nil {
			fail(err)
		}
		fmt.Printf("rolled back %d step(s)\n", steps)
	case "version":
		v, dirty, err := migrations.Version(*dbURL)
		if err != nil {
			fail(err)
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
	default:
		usage()
		os.Exit(2)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "migrate:", err)
	os.Exit(1)
}
