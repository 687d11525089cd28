// shopctl is a CLI for browsing a store and managing a cart from the terminal.
// Each command performs a single operation, making it composable for scripts.
// The cart session is kept in a local file so it survives between invocations.
//
// Commands:
//
//	shopctl products [-collection ID] [-pages N]
//	shopctl product -id ID
//	shopctl collections [-pages N]
//	shopctl search -query TERMS [-pages N]
//	shopctl predictive -query TERMS
//	shopctl cart
//	shopctl add -variant ID [-qty N]
//	shopctl update -line ID -qty N
//	shopctl remove -line ID
//	shopctl sync VARIANT=QTY...
//	shopctl checkout
//	shopctl buy-now -variant ID [-qty N]
//
// Examples:
//
//	STORE_DOMAIN=shop.example.com STOREFRONT_TOKEN=... shopctl products -pages 2
//	LINE=$(shopctl add -variant gid://shopify/ProductVariant/1 -q)
//	shopctl update -line "$LINE" -qty 3
//	open "$(shopctl checkout -q)"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"storefront/internal/app"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/paginate"
	"storefront/internal/variant"
)

// Global flags (apply to all commands)
var (
	quiet   bool
	noColor bool
	verbose bool
	asJSON  bool
	timeout time.Duration
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorCyan, colorGray, colorBold = "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "products":
		runProducts(args)
	case "product":
		runProduct(args)
	case "collections":
		runCollections(args)
	case "search":
		runSearch(args)
	case "predictive":
		runPredictive(args)
	case "cart":
		runCart(args)
	case "add":
		runAdd(args)
	case "update":
		runUpdate(args)
	case "remove":
		runRemove(args)
	case "sync":
		runSync(args)
	case "checkout":
		runCheckout(args)
	case "buy-now":
		runBuyNow(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `shopctl - storefront catalog and cart tool

Usage:
  shopctl <command> [options]

Catalog commands:
  products     List products (optionally of one collection)
  product      Show a product with its variants
  collections  List collections
  search       Search products
  predictive   Type-ahead suggestions

Cart commands:
  cart         Show the cart
  add          Add a variant to the cart
  update       Set a line's quantity
  remove       Remove a line
  sync         Make the cart hold exactly VARIANT=QTY pairs
  checkout     Print the checkout URL
  buy-now      Checkout a single variant without touching the cart

Configuration comes from the same environment variables as the server
(STORE_DOMAIN, STOREFRONT_TOKEN, ... or CONFIG_FILE). DEMO=true uses a
generated in-memory store. The cart session is kept in SESSION_DIR
(default ~/.shopctl).

Run 'shopctl <command> -h' for command-specific options.
`)
}

// =============================================================================
// SETUP
// =============================================================================

// newFlagSet returns a FlagSet with the global flags registered.
func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output ids/urls")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - log gateway calls to stderr")
	fs.BoolVar(&asJSON, "json", false, "Print the raw result as JSON")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "Overall command timeout")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: shopctl %s\n\nOptions:\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

// setup loads config and builds the dependencies. Cart sessions default to a file store.
func setup(ctx context.Context) *app.App {
	if noColor {
		disableColors()
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	if os.Getenv("SESSION_BACKEND") == "" && os.Getenv("CONFIG_FILE") == "" {
		os.Setenv("SESSION_BACKEND", "file")
		if os.Getenv("SESSION_DIR") == "" {
			os.Setenv("SESSION_DIR", defaultSessionDir())
		}
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		fatal("Loading config: %v", err)
	}

	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		fatal("%v", err)
	}
	return deps
}

func defaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shopctl"
	}
	return filepath.Join(home, ".shopctl")
}

// setupCart builds the dependencies and restores (or creates) the cart.
func setupCart(ctx context.Context) *app.App {
	deps := setup(ctx)
	if err := deps.Cart.Initialize(ctx); err != nil {
		fatal("Cart unavailable: %v", err)
	}
	return deps
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// =============================================================================
// CATALOG COMMANDS
// =============================================================================

func runProducts(args []string) {
	fs := newFlagSet("products", "products [-collection ID] [-pages N] [options]")
	var collectionID string
	var pages int
	fs.StringVar(&collectionID, "collection", "", "Collection ID")
	fs.IntVar(&pages, "pages", 1, "Number of pages to load")
	fs.Parse(args)

	ctx, cancel := commandContext()
	defer cancel()
	deps := setup(ctx)
	defer deps.Close()

	feed := deps.Catalog.Products()
	if collectionID != "" {
		feed = deps.Catalog.CollectionProducts(collectionID)
	}
	p := feed.Paginator()
	loadPages(ctx, p, pages)

	if printedJSON(p.Items()) {
		return
	}
	for _, item := range p.Items() {
		printProduct(item)
	}
	printMore(p)
}

func runCollections(args []string) {
	fs := newFlagSet("collections", "collections [-pages N] [options]")
	var pages int
	fs.IntVar(&pages, "pages", 1, "Number of pages to load")
	fs.Parse(args)

	ctx, cancel := commandContext()
	defer cancel()
	deps := setup(ctx)
	defer deps.Close()

	p := deps.Catalog.Collections().Paginator()
	loadPages(ctx, p, pages)

	if printedJSON(p.Items()) {
		return
	}
	for _, c := range p.Items() {
		if quiet {
			fmt.Println(c.ID)
			continue
		}
		fmt.Printf("%s%s%s  %s\n", colorCyan, c.ID, colorReset, c.Title)
	}
	printMore(p)
}

func runSearch(args []string) {
	fs := newFlagSet("search", "search -query TERMS [-pages N] [options]")
	var query string
	var pages int
	fs.StringVar(&query, "query", "", "Search terms (required)")
	fs.IntVar(&pages, "pages", 1, "Number of pages to load")
	fs.Parse(args)

	if strings.TrimSpace(query) == "" {
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := commandContext()
	defer cancel()
	deps := setup(ctx)
	defer deps.Close()

	p := deps.Catalog.Search(query).Paginator()
	loadPages(ctx, p, pages)

	if printedJSON(p.Items()) {
		return
	}
	if p.Len() == 0 {
		printInfo("No products match %q", query)
		return
	}
	for _, item := range p.Items() {
		printProduct(item)
	}
	printMore(p)
}

func runPredictive(args []string) {
	fs := newFlagSet("predictive", "predictive -query TERMS [options]")
	var query string
	fs.StringVar(&query, "query", "", "Partial search terms (required)")
	fs.Parse(args)

	ctx, cancel := commandContext()
	defer cancel()
	deps := setup(ctx)
	defer deps.Close()

	results, err := deps.Catalog.PredictiveSearch(ctx, query)
	if err != nil {
		fatal("Predictive search failed: %v", err)
	}
	if printedJSON(results) {
		return
	}
	for _, r := range results.All() {
		kind := "product"
		if r.IsCollection {
			kind = "collection"
		}
		fmt.Printf("%s%-10s%s %s%s%s  %s\n", colorGray, kind, colorReset, colorCyan, r.ID, colorReset, r.Title)
	}
}

func runProduct(args []string) {
	fs := newFlagSet("product", "product -id ID [options]")
	var productID string
	fs.StringVar(&productID, "id", "", "Product ID (required)")
	fs.Parse(args)

	if productID == "" {
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := commandContext()
	defer cancel()
	deps := setup(ctx)
	defer deps.Close()

	detail, err := deps.Catalog.ProductDetail(ctx, productID)
	if err != nil {
		fatal("Failed to get product: %v", err)
	}
	if printedJSON(detail) {
		return
	}

	fmt.Printf("%s%s%s\n", colorBold, detail.Product.Title, colorReset)
	if detail.Product.Description != "" {
		fmt.Printf("  %s\n", detail.Product.Description)
	}
	for _, v := range detail.Variants {
		marker := " "
		if detail.Selected != nil && detail.Selected.ID == v.ID {
			marker = "*"
		}
		stock := fmt.Sprintf("%d in stock", v.Stock)
		if variant.IsOutOfStock(v) {
			stock = colorRed + "sold out" + colorReset
		}
		fmt.Printf(" %s %s%s%s  %-20s %s  %s\n",
			marker, colorCyan, v.ID, colorReset, v.Title, formatPrices(variant.DisplayPrice(v.Price, v.CompareAtPrice)), stock)
	}
	if detail.VariantsNext != "" {
		printInfo("More variants available")
	}
}

// loadPages loads up to n pages, stopping early once the feed says there is no more.
func loadPages[T any](ctx context.Context, p *paginate.Paginator[T], n int) {
	for i := 0; i < n; i++ {
		if i > 0 && !p.ShowLoadMore() {
			return
		}
		if err := p.LoadMore(ctx); err != nil {
			fatal("Loading page %d: %v", i+1, err)
		}
	}
}

func printMore[T any](p *paginate.Paginator[T]) {
	if p.ShowLoadMore() {
		printInfo("Showing %d, more available (-pages)", p.Len())
	}
}

func printProduct(item model.ProductSummary) {
	if quiet {
		fmt.Println(item.ID)
		return
	}
	fmt.Printf("%s%s%s  %-40s %s\n",
		colorCyan, item.ID, colorReset, item.Title, formatPrices(variant.DisplayPrice(item.Price, item.CompareAtPrice)))
}

// formatPrices renders [price] or [price, compareAt] with the original struck through.
func formatPrices(prices []model.Money) string {
	if len(prices) == 0 {
		return ""
	}
	out := colorGreen + prices[0].Format() + colorReset
	if len(prices) > 1 {
		out += " " + colorGray + "(was " + prices[1].Format() + ")" + colorReset
	}
	return out
}

// =============================================================================
// CART COMMANDS
// =============================================================================

func runCart(args []string) {
	fs := newFlagSet("cart", "cart [options]")
	fs.Parse(args)

	ctx, cancel := commandContext()
	defer cancel()
	deps := setupCart(ctx)
	defer deps.Close()

	if err := deps.Cart.Refresh(ctx); err != nil {
		fatal("Failed to refresh cart: %v", err)
	}
	printCart(deps.Cart.Snapshot())
}

func runAdd(args []string) {
	fs := newFlagSet("add", "add -variant ID [-qty N] [options]")
	var variantID string
	var quantity int
	fs.StringVar(&variantID, "variant", "", "Variant ID (required)")
	fs.IntVar(&quantity, "qty", 1, "Quantity")
	fs.Parse(args)

	if variantID == "" {
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := commandContext()
	defer cancel()
	deps := setupCart(ctx)
	defer deps.Close()

	if err := deps.Cart.AddLine(ctx, variantID, quantity); err != nil {
		fatal("Failed to add line: %v", err)
	}

	snap := deps.Cart.Snapshot()
	if quiet {
		for _, l := range snap.Lines {
			if l.VariantID == variantID {
				fmt.Println(l.LineID)
			}
		}
		return
	}
	printSuccess("Added %d x %s", quantity, variantID)
	printCart(snap)
}

func runUpdate(args []string) {
	fs := newFlagSet("update", "update -line ID -qty N [options]")
	var lineID string
	var quantity int
	fs.StringVar(&lineID, "line", "", "Line ID (required)")
	fs.IntVar(&quantity, "qty", -1, "New quantity (required, 0 removes)")
	fs.Parse(args)

	if lineID == "" || quantity < 0 {
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := commandContext()
	defer cancel()
	deps := setupCart(ctx)
	defer deps.Close()

	if err := deps.Cart.UpdateLineQuantity(ctx, lineID, quantity); err != nil {
		fatal("Failed to update line: %v", err)
	}
	printSuccess("Line updated")
	printCart(deps.Cart.Snapshot())
}

func runRemove(args []string) {
	fs := newFlagSet("remove", "remove -line ID [options]")
	var lineID string
	fs.StringVar(&lineID, "line", "", "Line ID (required)")
	fs.Parse(args)

	if lineID == "" {
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := commandContext()
	defer cancel()
	deps := setupCart(ctx)
	defer deps.Close()

	if err := deps.Cart.RemoveLine(ctx, lineID); err != nil {
		fatal("Failed to remove line: %v", err)
	}
	printSuccess("Line removed")
	printCart(deps.Cart.Snapshot())
}

func runSync(args []string) {
	fs := newFlagSet("sync", "sync [options] VARIANT=QTY...")
	fs.Parse(args)

	desired, err := parseDesired(fs.Args())
	if err != nil {
		fatal("%v", err)
	}

	ctx, cancel := commandContext()
	defer cancel()
	deps := setupCart(ctx)
	defer deps.Close()

	if err := deps.Cart.SyncLines(ctx, desired); err != nil {
		fatal("Failed to sync cart: %v", err)
	}
	printSuccess("Cart synced")
	printCart(deps.Cart.Snapshot())
}

// parseDesired reads VARIANT=QTY arguments.
func parseDesired(args []string) ([]cart.DesiredLine, error) {
	desired := make([]cart.DesiredLine, 0, len(args))
	for _, arg := range args {
		id, qty, ok := strings.Cut(arg, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("expected VARIANT=QTY, got %q", arg)
		}
		n, err := strconv.Atoi(qty)
		if err != nil {
			return nil, fmt.Errorf("bad quantity in %q: %w", arg, err)
		}
		desired = append(desired, cart.DesiredLine{VariantID: id, Quantity: n})
	}
	return desired, nil
}

func runCheckout(args []string) {
	fs := newFlagSet("checkout", "checkout [options]")
	fs.Parse(args)

	ctx, cancel := commandContext()
	defer cancel()
	deps := setupCart(ctx)
	defer deps.Close()

	url, err := deps.Cart.CheckoutURL()
	if err != nil {
		fatal("No checkout available: %v", err)
	}
	if quiet {
		fmt.Println(url)
		return
	}
	printSuccess("Checkout ready")
	fmt.Printf("  URL: %s%s%s\n", colorCyan, url, colorReset)
}

func runBuyNow(args []string) {
	fs := newFlagSet("buy-now", "buy-now -variant ID [-qty N] [options]")
	var variantID string
	var quantity int
	fs.StringVar(&variantID, "variant", "", "Variant ID (required)")
	fs.IntVar(&quantity, "qty", 1, "Quantity")
	fs.Parse(args)

	if variantID == "" {
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := commandContext()
	defer cancel()
	deps := setup(ctx)
	defer deps.Close()

	url, err := deps.Catalog.BuyNow(ctx, variantID, quantity)
	if err != nil {
		fatal("Buy now failed: %v", err)
	}
	if quiet {
		fmt.Println(url)
		return
	}
	printSuccess("Checkout ready")
	fmt.Printf("  URL: %s%s%s\n", colorCyan, url, colorReset)
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printCart(c model.Cart) {
	if printedJSON(c) || quiet {
		return
	}
	if len(c.Lines) == 0 {
		printInfo("Cart %s is empty", c.Session.ID)
		return
	}
	fmt.Printf("%sCart%s %s (%d items)\n", colorBold, colorReset, c.Session.ID, c.Session.TotalQuantity)
	for _, l := range c.Lines {
		warn := ""
		if l.ExceedsStock() {
			warn = colorYellow + fmt.Sprintf(" only %d available", l.QuantityAvailable) + colorReset
		}
		fmt.Printf("  %s%s%s\n    %d x %s / %s  %s%s\n",
			colorGray, l.LineID, colorReset,
			l.Quantity, l.ProductTitle, l.VariantTitle,
			formatPrices(variant.DisplayPrice(l.Price.Mul(l.Quantity), compareAtTotal(l))), warn)
	}
	fmt.Printf("  Subtotal: %s%s%s\n", colorGreen, c.Subtotal.Format(), colorReset)
}

func compareAtTotal(l model.CartLineItem) *model.Money {
	if l.CompareAtPrice == nil {
		return nil
	}
	total := l.CompareAtPrice.Mul(l.Quantity)
	return &total
}

// printedJSON prints v as indented JSON when -json is set.
func printedJSON(v any) bool {
	if !asJSON {
		return false
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("Encoding JSON: %v", err)
	}
	fmt.Println(string(data))
	return true
}

func printSuccess(format string, args ...any) {
	if !quiet && !asJSON {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printInfo(format string, args ...any) {
	if !quiet && !asJSON {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
