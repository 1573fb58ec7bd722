// qkart is a CLI storefront for the QKart backend.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	qkart register -u NAME -p PASSWORD
//	qkart login -u NAME -p PASSWORD
//	qkart products
//	qkart search [-i] [TERM]
//	qkart add -product ID [-qty N]
//	qkart update -product ID -qty N
//	qkart cart
//	qkart addresses
//	qkart address-add -text "..."
//	qkart address-del -id ID
//	qkart checkout -address ID
//	qkart balance
//	qkart logout
//
// Examples:
//
//	qkart login -u crio -p secret
//	qkart add -product BW0jAAeDJmlZCF8i -qty 2
//	ADDR=$(qkart address-add -text "221B Baker Street" -q)
//	qkart checkout -address "$ADDR"
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"qkart/internal/address"
	"qkart/internal/cart"
	"qkart/internal/catalog"
	"qkart/internal/checkout"
	"qkart/internal/config"
	"qkart/internal/model"
	"qkart/internal/qkart"
	"qkart/internal/search"
	"qkart/internal/session"
)

// Global flags (apply to all commands)
var (
	backendURL string
	statePath  string
	quiet      bool
	noColor    bool
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
	colorReset, colorRed, colorGreen = "", "", ""
	colorYellow, colorCyan, colorGray, colorBold = "", "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "register":
		runRegister(args)
	case "login":
		runLogin(args)
	case "logout":
		runLogout(args)
	case "products":
		runProducts(args)
	case "search":
		runSearch(args)
	case "cart":
		runCart(args)
	case "add":
		runAdd(args)
	case "update":
		runUpdate(args)
	case "addresses":
		runAddresses(args)
	case "address-add":
		runAddressAdd(args)
	case "address-del":
		runAddressDel(args)
	case "checkout":
		runCheckout(args)
	case "balance":
		runBalance(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `qkart - QKart storefront CLI

Usage:
  qkart <command> [options]

Commands:
  register     Create an account
  login        Log in and persist the session
  logout       Clear the persisted session
  products     List the product catalog
  search       Search products (use -i for interactive mode)
  cart         Show the cart with totals
  add          Add a product to the cart
  update       Set the quantity of a cart item (0 removes it)
  addresses    List saved shipping addresses
  address-add  Save a new shipping address
  address-del  Delete a shipping address
  checkout     Place the order for the cart
  balance      Show the wallet balance

Examples:
  qkart login -u crio -p secret
  qkart add -product BW0jAAeDJmlZCF8i -qty 2
  qkart checkout -address TNAIJpuEvrArbaxtp

Run 'qkart <command> -h' for command-specific options.
`)
}

// =============================================================================
// COMMAND PLUMBING
// =============================================================================

// newFlagSet creates a flag set carrying the global flags.
func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&backendURL, "backend", envOr("QKART_BACKEND_URL", "http://localhost:8082/api/v1"), "QKart backend base URL")
	fs.StringVar(&statePath, "state", os.Getenv("QKART_SESSION_PATH"), "Session store path (default ~/.qkart/session.db)")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - minimal output")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: qkart %s\n\nOptions:\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// app bundles what every command needs.
type app struct {
	client  *qkart.Client
	session *session.Session
	logger  *slog.Logger
}

// setup parses flags and wires the client and session.
func setup(fs *flag.FlagSet, args []string) *app {
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	client, err := qkart.New(qkart.Config{BaseURL: backendURL})
	if err != nil {
		fatal("Invalid backend URL: %v", err)
	}

	store, err := session.OpenStore(statePath)
	if err != nil {
		fatal("Opening session store: %v", err)
	}
	sess, err := session.Load(store)
	if err != nil {
		fatal("Loading session: %v", err)
	}

	return &app{
		client:  client,
		session: sess,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// notifier prints component messages with severity markers.
func notifier() model.Notifier {
	return model.NotifierFunc(func(msg model.Message) {
		switch msg.Type {
		case "error":
			printError("%s", msg.Content)
		case "warning":
			printWarning("%s", msg.Content)
		case "success":
			printSuccess("%s", msg.Content)
		default:
			printInfo("%s", msg.Content)
		}
	})
}

func requireLogin(a *app) {
	if !a.session.Authenticated() {
		fatal("Not logged in. Run 'qkart login' first.")
	}
}

// =============================================================================
// AUTH COMMANDS
// =============================================================================

func runRegister(args []string) {
	fs := newFlagSet("register", "register -u NAME -p PASSWORD")
	var username, password string
	fs.StringVar(&username, "u", "", "Username (required)")
	fs.StringVar(&password, "p", "", "Password (required)")
	a := setup(fs, args)

	if username == "" || password == "" {
		fs.Usage()
		os.Exit(1)
	}

	if err := a.client.Register(context.Background(), username, password); err != nil {
		fatalAPI(err)
	}
	printSuccess("Registered successfully")
}

func runLogin(args []string) {
	fs := newFlagSet("login", "login -u NAME -p PASSWORD")
	var username, password string
	fs.StringVar(&username, "u", "", "Username (required)")
	fs.StringVar(&password, "p", "", "Password (required)")
	a := setup(fs, args)

	if username == "" || password == "" {
		fs.Usage()
		os.Exit(1)
	}

	result, err := a.client.Login(context.Background(), username, password)
	if err != nil {
		fatalAPI(err)
	}
	if err := a.session.Begin(result.Token, result.Username, result.Balance); err != nil {
		fatal("Persisting session: %v", err)
	}

	printSuccess("Logged in successfully")
	if !quiet {
		fmt.Printf("  Balance: %s%s%s\n", colorGreen, model.FormatINR(result.Balance), colorReset)
	}
}

func runLogout(args []string) {
	fs := newFlagSet("logout", "logout")
	a := setup(fs, args)

	if err := a.session.End(); err != nil {
		fatal("Clearing session: %v", err)
	}
	printSuccess("Logged out of application")
}

func runBalance(args []string) {
	fs := newFlagSet("balance", "balance")
	a := setup(fs, args)
	requireLogin(a)

	if quiet {
		fmt.Println(a.session.Balance())
		return
	}
	fmt.Printf("%s%s%s (%s)\n",
		colorGreen, model.FormatINR(a.session.Balance()), colorReset, a.session.Username())
}

// =============================================================================
// CATALOG COMMANDS
// =============================================================================

func runProducts(args []string) {
	fs := newFlagSet("products", "products")
	a := setup(fs, args)

	fetcher := catalog.NewFetcher(a.client, notifier(), a.logger)
	products, err := fetcher.List(context.Background())
	if err != nil {
		os.Exit(1)
	}
	printProducts(products)
}

func runSearch(args []string) {
	fs := newFlagSet("search", "search [-i] [TERM]")
	var interactive bool
	var debounce time.Duration
	fs.BoolVar(&interactive, "i", false, "Interactive mode - search as you type")
	fs.DurationVar(&debounce, "debounce", defaultDebounce(), "Quiet period before an interactive search fires")
	a := setup(fs, args)

	fetcher := catalog.NewFetcher(a.client, notifier(), a.logger)

	if interactive {
		runInteractiveSearch(a, fetcher, debounce)
		return
	}

	term := strings.Join(fs.Args(), " ")
	products, err := fetcher.Search(context.Background(), term)
	if err != nil {
		os.Exit(1)
	}
	printProducts(products)
}

// defaultDebounce resolves the interactive quiet period from the same
// configuration the gateway reads (QKART_SEARCH_DEBOUNCE or
// CONFIG_FILE), falling back to the built-in default when no
// configuration resolves.
func defaultDebounce() time.Duration {
	cfg, err := config.Load(context.Background())
	if err != nil || cfg.SearchDebounce() <= 0 {
		return search.DefaultDelay
	}
	return cfg.SearchDebounce()
}

// runInteractiveSearch reads terms line by line and debounces the
// backend calls, so a burst of edits results in a single search.
func runInteractiveSearch(a *app, fetcher *catalog.Fetcher, delay time.Duration) {
	printInfo("Type to search, empty line to quit")

	debouncer := search.NewDebouncer(func(ctx context.Context, term string) {
		products, err := fetcher.Search(ctx, term)
		if err != nil {
			return
		}
		printProducts(products)
	}, delay)
	defer debouncer.Stop()

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		debouncer.Trigger(ctx, line)
	}
	debouncer.Flush(ctx)
}

func printProducts(products []model.Product) {
	if quiet {
		for _, p := range products {
			fmt.Println(p.ID)
		}
		return
	}
	for _, p := range products {
		fmt.Printf("%s%s%s  %s%s%s\n    %s · %s · %.1f★\n",
			colorCyan, p.ID, colorReset,
			colorBold, p.Name, colorReset,
			p.Category, model.FormatINR(p.Price), p.Rating.Stars())
	}
}

// =============================================================================
// CART COMMANDS
// =============================================================================

// loadCart fetches and reconciles the cart against the catalog.
func loadCart(a *app) (cart.Result, []model.Product) {
	ctx := context.Background()
	fetcher := catalog.NewFetcher(a.client, notifier(), a.logger)
	products, err := fetcher.List(ctx)
	if err != nil {
		os.Exit(1)
	}
	records, err := a.client.GetCart(ctx, a.session.Token())
	if err != nil {
		fatalAPI(err)
	}
	return cart.Reconcile(records, products), products
}

func runCart(args []string) {
	fs := newFlagSet("cart", "cart")
	a := setup(fs, args)
	requireLogin(a)

	result, _ := loadCart(a)
	printCart(result)
}

func runAdd(args []string) {
	mutateCart(args, "add -product ID [-qty N]", cart.Options{PreventDuplicate: true})
}

func runUpdate(args []string) {
	mutateCart(args, "update -product ID -qty N", cart.Options{})
}

func mutateCart(args []string, usage string, opts cart.Options) {
	fs := newFlagSet("cart-mutate", usage)
	var productID string
	var qty int
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.IntVar(&qty, "qty", 1, "Quantity (0 removes the item)")
	a := setup(fs, args)
	requireLogin(a)

	if productID == "" {
		fs.Usage()
		os.Exit(1)
	}

	result, products := loadCart(a)

	mutator := cart.NewMutator(a.client, notifier(), a.logger)
	items, err := mutator.AddOrUpdate(context.Background(), a.session.Token(),
		result.Items, products, productID, qty, opts)
	if err != nil {
		os.Exit(1)
	}
	printCart(cart.Result{Items: items})
}

func printCart(result cart.Result) {
	if len(result.Items) == 0 {
		printInfo("Cart is empty")
		return
	}
	for _, item := range result.Items {
		fmt.Printf("%s%-4d%s %s%s%s  %s\n",
			colorBold, item.Quantity, colorReset,
			colorCyan, item.Product.Name, colorReset,
			model.FormatINR(item.Subtotal()))
	}
	fmt.Printf("Total: %s%s%s (%d items)\n",
		colorGreen, model.FormatINR(cart.TotalValue(result.Items)), colorReset,
		cart.TotalQuantity(result.Items))
}

// =============================================================================
// ADDRESS COMMANDS
// =============================================================================

func runAddresses(args []string) {
	fs := newFlagSet("addresses", "addresses")
	a := setup(fs, args)
	requireLogin(a)

	mgr := address.NewManager(a.client, notifier(), a.logger)
	if err := mgr.Refresh(context.Background(), a.session.Token()); err != nil {
		os.Exit(1)
	}
	printAddresses(mgr.Book())
}

func runAddressAdd(args []string) {
	fs := newFlagSet("address-add", `address-add -text "..."`)
	var text string
	fs.StringVar(&text, "text", "", "Full address text (required)")
	a := setup(fs, args)
	requireLogin(a)

	mgr := address.NewManager(a.client, notifier(), a.logger)
	if err := mgr.Add(context.Background(), a.session.Token(), text); err != nil {
		os.Exit(1)
	}

	book := mgr.Book()
	if quiet && len(book.Entries) > 0 {
		fmt.Println(book.Entries[len(book.Entries)-1].ID)
		return
	}
	printSuccess("Address saved")
	printAddresses(book)
}

func runAddressDel(args []string) {
	fs := newFlagSet("address-del", "address-del -id ID")
	var id string
	fs.StringVar(&id, "id", "", "Address ID (required)")
	a := setup(fs, args)
	requireLogin(a)

	if id == "" {
		fs.Usage()
		os.Exit(1)
	}

	mgr := address.NewManager(a.client, notifier(), a.logger)
	if err := mgr.Delete(context.Background(), a.session.Token(), id); err != nil {
		os.Exit(1)
	}
	printSuccess("Address deleted")
	printAddresses(mgr.Book())
}

func printAddresses(book model.AddressBook) {
	if quiet {
		for _, e := range book.Entries {
			fmt.Println(e.ID)
		}
		return
	}
	if len(book.Entries) == 0 {
		printInfo("No addresses saved")
		return
	}
	for _, e := range book.Entries {
		marker := " "
		if e.ID == book.SelectedID {
			marker = "*"
		}
		fmt.Printf("%s %s%s%s  %s\n", marker, colorCyan, e.ID, colorReset, e.Text)
	}
}

// =============================================================================
// CHECKOUT COMMAND
// =============================================================================

func runCheckout(args []string) {
	fs := newFlagSet("checkout", "checkout -address ID [-exact]")
	var addressID string
	var exact bool
	fs.StringVar(&addressID, "address", "", "Shipping address ID (required)")
	fs.BoolVar(&exact, "exact", false, "Debit the wallet to the paisa instead of whole rupees")
	a := setup(fs, args)
	requireLogin(a)

	if addressID == "" {
		fs.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	result, _ := loadCart(a)

	mgr := address.NewManager(a.client, notifier(), a.logger)
	if err := mgr.Refresh(ctx, a.session.Token()); err != nil {
		os.Exit(1)
	}
	if err := mgr.Select(addressID); err != nil {
		fatal("Unknown address: %s", addressID)
	}

	rounding := checkout.TruncateToRupee
	if exact {
		rounding = checkout.ExactPaise
	}
	processor := checkout.New(checkout.Config{
		Backend:  a.client,
		Session:  a.session,
		Notifier: notifier(),
		Rounding: rounding,
		Logger:   a.logger,
	})

	book := mgr.Book()
	if _, err := processor.Perform(ctx, result.Items, &book); err != nil {
		os.Exit(1)
	}

	if !quiet {
		fmt.Printf("  New balance: %s%s%s\n",
			colorGreen, model.FormatINR(a.session.Balance()), colorReset)
	}
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Printf("%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

// fatalAPI prints an API error the way the notifier would and exits.
func fatalAPI(err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		fatal("%s", apiErr.Message)
	}
	fatal("%v", err)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
