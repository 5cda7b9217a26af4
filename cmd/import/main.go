package main

// Import documents from a JSON or YAML file:
//   go run ./cmd/import documents.yaml
//   go run ./cmd/import --overwrite documents.json
//   go run ./cmd/import --validate documents.yaml
//   go run ./cmd/import --list
//   go run ./cmd/import --create-sample sample.yaml

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"annotation-backend/internal/access"
	"annotation-backend/internal/bootstrap"
	"annotation-backend/internal/importer"
	"annotation-backend/internal/shared/config"
)

func main() {
	var overwrite, validateOnly, list bool
	var samplePath string
	flag.BoolVar(&overwrite, "overwrite", false, "replace documents whose title already exists")
	flag.BoolVar(&overwrite, "o", false, "shorthand for --overwrite")
	flag.BoolVar(&validateOnly, "validate", false, "validate the file without importing")
	flag.BoolVar(&validateOnly, "v", false, "shorthand for --validate")
	flag.BoolVar(&list, "list", false, "list existing documents")
	flag.StringVar(&samplePath, "create-sample", "", "write a sample import file to this path")
	flag.StringVar(&samplePath, "s", "", "shorthand for --create-sample")
	flag.Parse()

	if samplePath != "" {
		data, err := importer.MarshalSample()
		if err != nil {
			fail("render sample: %v", err)
		}
		if err := os.WriteFile(samplePath, data, 0o644); err != nil {
			fail("write sample: %v", err)
		}
		fmt.Printf("sample written to %s\n", samplePath)
		return
	}

	ctx := context.Background()

	if list {
		app := buildApp()
		docs, err := app.DocumentsService.ListAll(ctx)
		if err != nil {
			fail("list documents: %v", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tASSIGNED TO")
		for _, d := range docs {
			assigned := "-"
			if d.AssignedTo != nil {
				assigned = *d.AssignedTo
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Title, d.Status, assigned)
		}
		_ = w.Flush()
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: import [--overwrite] [--validate] FILE | --list | --create-sample PATH")
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fail("read file: %v", err)
	}
	records, err := importer.Parse(data)
	if err != nil {
		fail("%v", err)
	}

	problems := importer.Validate(records)
	for _, p := range problems {
		fmt.Fprintln(os.Stderr, p.String())
	}
	if validateOnly {
		if len(problems) > 0 {
			os.Exit(1)
		}
		fmt.Printf("%d documents valid\n", len(records))
		return
	}

	app := buildApp()
	im := &importer.Importer{
		Documents: app.DocumentsService,
		Users:     app.UsersService,
		Actor:     access.Actor{UserID: "importer", Role: access.RoleAdmin, Username: "importer"},
		Overwrite: overwrite,
	}
	sum, err := im.Run(ctx, records)
	if err != nil {
		fail("import: %v", err)
	}
	fmt.Printf("created=%d overwritten=%d skipped=%d failed=%d\n", sum.Created, sum.Overwritten, sum.Skipped, sum.Failed)
	if sum.Failed > 0 {
		os.Exit(1)
	}
}

func buildApp() *bootstrap.App {
	cfg := config.Load()
	cfg.Process = "cli"
	if cfg.DatabaseURL == "" {
		fail("DATABASE_URL is required")
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		fail("bootstrap build: %v", err)
	}
	if app.DB == nil {
		fail("database unavailable")
	}
	return app
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
