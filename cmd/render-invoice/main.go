// render-invoice renders an invoice or estimate JSON document to PDF without
// touching the database.
//
// Usage:
//
//	go run ./cmd/render-invoice [-out file.pdf] [-skip-validate] [invoice.json]
//
// The JSON uses the same fields as POST /api/invoices. With no file argument
// it is read from stdin. Totals are always recomputed from the items.
//
// Exit codes: 0 ok, 1 usage or input error, 2 validation failed, 3 render failed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"

	"github.com/mmdatafocus/invoice_backend/config"
	"github.com/mmdatafocus/invoice_backend/models"
	"github.com/mmdatafocus/invoice_backend/render"
	"github.com/mmdatafocus/invoice_backend/utils"
)

const (
	exitOK         = 0
	exitUsage      = 1
	exitValidation = 2
	exitRender     = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stderr))
}

func run(args []string, stdin io.Reader, stderr io.Writer) int {
	fs := flag.NewFlagSet("render-invoice", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", "", "output path (default <invoice number or draft>.pdf)")
	skipValidate := fs.Bool("skip-validate", false, "render even when required fields are missing")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "at most one input file may be given")
		return exitUsage
	}

	in := stdin
	if fs.NArg() == 1 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(stderr, "failed to open input: %v\n", err)
			return exitUsage
		}
		defer f.Close()
		in = f
	}

	var input models.NewInvoice
	if err := json.NewDecoder(in).Decode(&input); err != nil {
		fmt.Fprintf(stderr, "failed to decode invoice JSON: %v\n", err)
		return exitUsage
	}
	draft := models.DraftFromInput(input)

	if !*skipValidate {
		if err := draft.Validate(config.StrictNumericInput()); err != nil {
			printValidation(stderr, err)
			return exitValidation
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	renderer := &render.Renderer{
		Assets:      utils.NewAssetFetcherFromEnv(),
		Logger:      config.GetLogger(),
		PhoneRegion: config.PhoneDefaultRegion(),
	}
	if config.GenerateUPIQR() {
		renderer.QR = render.SkipQR{}
	}
	doc, err := renderer.Render(ctx, draft.RenderView())
	if err != nil {
		fmt.Fprintf(stderr, "failed to render: %v\n", err)
		return exitRender
	}

	path := *out
	if path == "" {
		path = doc.Filename
	}
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(stderr, "failed to create %s: %v\n", path, err)
		return exitRender
	}
	if err := render.WritePDF(doc, f); err != nil {
		f.Close()
		os.Remove(path)
		fmt.Fprintf(stderr, "failed to write PDF: %v\n", err)
		return exitRender
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(stderr, "failed to write PDF: %v\n", err)
		return exitRender
	}
	fmt.Fprintf(stderr, "wrote %s (%d page(s), total %s)\n", path, len(doc.Pages), utils.FormatMoney(draft.Total))
	return exitOK
}

func printValidation(w io.Writer, err error) {
	verr, ok := utils.IsValidationError(err)
	if !ok {
		fmt.Fprintln(w, err)
		return
	}
	fields := make([]string, 0, len(verr.Fields))
	for f := range verr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	fmt.Fprintln(w, "invoice is not valid:")
	for _, f := range fields {
		fmt.Fprintf(w, "  %s: %s\n", f, verr.Fields[f])
	}
}
