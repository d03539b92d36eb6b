// Command resell is a terminal client for the resale marketplace. It
// drives the same Go SDK a GUI frontend would: scan a phone for a
// price, list it, browse the marketplace, and pay through the gateway
// checkout, which here is a stdin prompt standing in for the widget.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/resellai/resell-api/internal/client/api"
	"github.com/resellai/resell-api/internal/client/market"
	"github.com/resellai/resell-api/internal/client/payment"
	"github.com/resellai/resell-api/internal/client/scan"
	"github.com/resellai/resell-api/internal/client/session"
)

const usage = `Usage: resell [-api URL] <command> [flags]

Commands:
  register      create an account (grants starter scan credits)
  login         sign in and store the session token
  logout        revoke the session token
  me            show the signed-in profile and credit balance
  scan          price a phone from a photo (costs one credit)
  sell          list an accepted scan on the marketplace
  market        browse listings
  sold          mark one of your listings as sold
  buy-credits   top up scan credits through the payment gateway
  buy           purchase a listing through the payment gateway
`

func main() {
	apiURL := flag.String("api", envOr("RESELL_API", "http://localhost:8080"), "backend base URL")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	store := session.NewStore()
	loadToken(store)
	client := api.NewClient(*apiURL, store)

	ctx := context.Background()
	cmd, args := flag.Arg(0), flag.Args()[1:]

	var err error
	switch cmd {
	case "register":
		err = cmdRegister(ctx, client, args)
	case "login":
		err = cmdLogin(ctx, client, args)
	case "logout":
		err = cmdLogout(ctx, client)
	case "me":
		err = cmdMe(ctx, client)
	case "scan":
		err = cmdScan(ctx, client, args)
	case "sell":
		err = cmdSell(ctx, client, args)
	case "market":
		err = cmdMarket(ctx, client, args)
	case "sold":
		err = cmdSold(ctx, client, args)
	case "buy-credits":
		err = cmdBuyCredits(ctx, client, args)
	case "buy":
		err = cmdBuy(ctx, client, args)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", errorText(err))
		os.Exit(1)
	}
}

func cmdRegister(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if err := client.Register(ctx, *username, *email, *password); err != nil {
		return err
	}
	saveToken(client.Session())
	fmt.Println("Registered and signed in.")
	return cmdMe(ctx, client)
}

func cmdLogin(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if err := client.Login(ctx, *email, *password); err != nil {
		return err
	}
	saveToken(client.Session())
	fmt.Println("Signed in.")
	return nil
}

func cmdLogout(ctx context.Context, client *api.Client) error {
	err := client.Logout(ctx)
	clearToken()
	if err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func cmdMe(ctx context.Context, client *api.Client) error {
	p, err := client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\ncredits: %d\n", p.Username, p.Email, p.Credits)
	return nil
}

func cmdScan(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	photo := fs.String("photo", "", "path to a phone photo")
	brand := fs.String("brand", "", "brand, e.g. samsung")
	ram := fs.Int("ram", 0, "RAM in GB")
	storageGB := fs.Int("storage", 0, "storage in GB")
	age := fs.Int("age", 0, "age in years")
	mrp := fs.Float64("mrp", 0, "original retail price")
	broken := fs.Bool("broken", false, "body visibly broken")
	sell := fs.Bool("sell", false, "list immediately if accepted")
	fs.Parse(args)

	f, err := os.Open(*photo)
	if err != nil {
		return err
	}
	defer f.Close()

	requester := scan.NewRequester(client)
	result, err := requester.Request(ctx, api.Device{
		Brand:      *brand,
		RAM:        *ram,
		Storage:    *storageGB,
		Age:        *age,
		BodyBroken: *broken,
		MRP:        *mrp,
	}, f, filepath.Base(*photo))
	if err != nil {
		return err
	}

	v := result.Valuation
	if !v.Accepted() || v.ResalePrice == nil {
		fmt.Println("Rejected:", v.Message)
		return nil
	}

	fmt.Printf("Accepted: %s %dGB/%dGB, damage %s\n", v.Brand, v.RAM, v.Storage, v.Damage)
	fmt.Printf("Resale price: %.2f\n", *v.ResalePrice)
	if result.BalanceKnown {
		fmt.Printf("Credits left: %d\n", result.Credits)
	}

	if *sell {
		if err := market.NewClient(client).Promote(ctx, *v); err != nil {
			return err
		}
		fmt.Println("Listed on the marketplace.")
	} else {
		fmt.Printf("To list it: resell sell -image %s\n", v.ImagePath)
	}
	return nil
}

// cmdSell re-resolves the valuation server-side from its image path so
// a later invocation can list a scan made in a previous run.
func cmdSell(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("sell", flag.ExitOnError)
	image := fs.String("image", "", "image path of an accepted scan")
	price := fs.Float64("price", 0, "resale price from the scan")
	brand := fs.String("brand", "", "brand")
	ram := fs.Int("ram", 0, "RAM in GB")
	storageGB := fs.Int("storage", 0, "storage in GB")
	age := fs.Int("age", 0, "age in years")
	damage := fs.String("damage", "", "damage class from the scan")
	fs.Parse(args)

	v := api.Valuation{
		Status:      "accepted",
		ResalePrice: price,
		Damage:      *damage,
		ImagePath:   *image,
		Brand:       *brand,
		RAM:         *ram,
		Storage:     *storageGB,
		Age:         *age,
	}
	if err := client.SellFromPrediction(ctx, v); err != nil {
		return err
	}
	fmt.Println("Listed on the marketplace.")
	return nil
}

func cmdMarket(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("market", flag.ExitOnError)
	view := fs.String("view", "all", "all, on_sale or sold")
	brand := fs.String("brand", "", "filter by brand")
	query := fs.String("q", "", "free-text filter")
	sortOrder := fs.String("sort", "", "price sort: asc or desc")
	mine := fs.Bool("mine", false, "only my own listings")
	fs.Parse(args)

	if *mine {
		// The ownership marker needs the cached profile.
		if _, err := client.Me(ctx); err != nil {
			return err
		}
	}

	listings, err := market.NewClient(client).Fetch(ctx)
	if err != nil {
		return err
	}

	shown := market.Apply(listings, market.Filter{
		View:  market.View(*view),
		Brand: *brand,
		Query: *query,
		Sort:  market.PriceSort(*sortOrder),
	})
	if *mine {
		me := client.Session().UserID()
		own := shown[:0]
		for _, l := range shown {
			if market.SellerID(l) == me {
				own = append(own, l)
			}
		}
		shown = own
	}

	if len(shown) == 0 {
		fmt.Println("No listings.")
		return nil
	}
	me := client.Session().UserID()
	for _, l := range shown {
		marker := " "
		if market.IsOwner(me, l) {
			marker = "*"
		}
		fmt.Printf("%s %-26s %-10s %2dGB/%3dGB %dy %-18s %10.2f %s\n",
			marker, market.ListingID(l), l.Brand, l.RAM, l.Storage, l.Age, l.Damage, l.Price, l.Status)
	}
	return nil
}

func cmdSold(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("sold", flag.ExitOnError)
	id := fs.String("id", "", "listing id")
	fs.Parse(args)

	if err := client.MarkSold(ctx, *id); err != nil {
		return err
	}
	fmt.Println("Marked as sold.")
	return nil
}

func cmdBuyCredits(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("buy-credits", flag.ExitOnError)
	pack := fs.Int("pack", 5, "credit pack size: 5, 10 or 20")
	fs.Parse(args)

	o := newOrchestrator(client)
	flow, err := o.PurchaseCredits(ctx, *pack)
	return reportFlow(flow, err)
}

func cmdBuy(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("buy", flag.ExitOnError)
	id := fs.String("id", "", "listing id")
	fs.Parse(args)

	// The ownership guard compares against the cached profile; make
	// sure it is populated before the flow starts.
	if _, err := client.Me(ctx); err != nil {
		return err
	}

	listings, err := client.Listings(ctx)
	if err != nil {
		return err
	}
	var target *api.Listing
	for i := range listings {
		if market.ListingID(listings[i]) == *id {
			target = &listings[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("listing %s not found", *id)
	}

	o := newOrchestrator(client)
	flow, err := o.PurchaseListing(ctx, *target)
	return reportFlow(flow, err)
}

func newOrchestrator(client *api.Client) *payment.Orchestrator {
	o := payment.NewOrchestrator(client, &terminalCheckout{in: bufio.NewReader(os.Stdin)})
	o.OnStateChange = func(_ payment.Target, state payment.State) {
		fmt.Println("payment:", state)
	}
	o.OnBalanceRefreshed = func(credits int) {
		fmt.Printf("Credits: %d\n", credits)
	}
	return o
}

func reportFlow(flow *payment.Flow, err error) error {
	if err != nil {
		if flow != nil && flow.Message != "" {
			return fmt.Errorf("%s", flow.Message)
		}
		return err
	}
	fmt.Println("Payment verified.")
	return nil
}

// terminalCheckout stands in for the gateway's checkout widget. It
// prints the order and reads the receipt fields from stdin; an empty
// payment id is a dismissal.
type terminalCheckout struct {
	in *bufio.Reader
}

func (t *terminalCheckout) Open(_ context.Context, params payment.CheckoutParams) {
	fmt.Printf("\nGateway checkout\n  order:    %s\n  amount:   %d %s\n  key:      %s\n",
		params.OrderID, params.Amount, params.Currency, params.Key)
	fmt.Println("Complete the payment, then paste the receipt (empty payment id cancels).")

	paymentID := t.prompt("payment id: ")
	if paymentID == "" {
		params.OnDismiss()
		return
	}
	signature := t.prompt("signature:  ")

	params.OnSuccess(api.Receipt{
		OrderID:   params.OrderID,
		PaymentID: paymentID,
		Signature: signature,
	})
}

func (t *terminalCheckout) prompt(label string) string {
	fmt.Print(label)
	line, err := t.in.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

// errorText prefers the SDK's structured messages over Go error chains.
func errorText(err error) string {
	switch e := err.(type) {
	case *api.AuthError:
		return "not signed in: " + e.Error()
	case *api.ServerError:
		return e.Message()
	case *api.ValidationError:
		parts := make([]string, 0, len(e.Fields))
		for field, msg := range e.Fields {
			parts = append(parts, field+": "+msg)
		}
		return strings.Join(parts, "; ")
	default:
		return err.Error()
	}
}

func sessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "resell", "session.json")
}

type sessionFile struct {
	AccessToken string `json:"access_token"`
}

func loadToken(store *session.Store) {
	path := sessionPath()
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var sf sessionFile
	if json.Unmarshal(data, &sf) == nil && sf.AccessToken != "" {
		store.SetToken(sf.AccessToken)
	}
}

func saveToken(store *session.Store) {
	path := sessionPath()
	if path == "" {
		return
	}
	token, ok := store.Token()
	if !ok {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return
	}
	data, _ := json.Marshal(sessionFile{AccessToken: token})
	os.WriteFile(path, data, 0o600)
}

func clearToken() {
	if path := sessionPath(); path != "" {
		os.Remove(path)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
