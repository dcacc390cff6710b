package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/junaidrashid-git/storefront/cart"
	"github.com/junaidrashid-git/storefront/checkout"
	"github.com/junaidrashid-git/storefront/client"
	"github.com/junaidrashid-git/storefront/localstore"
	"github.com/junaidrashid-git/storefront/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type CartOptions struct {
	*RootOptions
	Server   string
	DataPath string
}

// cartEnv is one CLI invocation's view of the cart: the local slot store,
// the saved session and an engine bound to it.
type cartEnv struct {
	local   *localstore.Store
	session *client.Session
	api     *client.Client
	engine  *cart.Engine
	unbind  func()
}

func (o *CartOptions) open() (*cartEnv, error) {
	server := o.Server
	if server == "" {
		server = "http://localhost:" + o.Config.Port
	}
	path := o.DataPath
	if path == "" {
		path = defaultCartPath()
	}

	local, err := localstore.Open(path)
	if err != nil {
		return nil, err
	}
	session, err := client.LoadSession(local)
	if err != nil {
		local.Close()
		return nil, err
	}
	api := client.New(server, session)
	engine := cart.New(cart.Options{
		Local:       local,
		Remote:      api,
		Stock:       api,
		SyncTimeout: o.Config.CartSyncTimeout,
	})
	return &cartEnv{
		local:   local,
		session: session,
		api:     api,
		engine:  engine,
		unbind:  engine.Bind(session),
	}, nil
}

// Close waits for remote pushes before the local store goes away.
func (e *cartEnv) Close() error {
	e.engine.Wait()
	e.unbind()
	return e.local.Close()
}

func defaultCartPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".storefront", "cart.db")
	}
	return filepath.Join(dir, "storefront", "cart.db")
}

func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CartOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Shop from the terminal against a running server",
	}
	cmd.PersistentFlags().StringVar(&opts.Server, "server", "", "API base URL (default http://localhost:$PORT)")
	cmd.PersistentFlags().StringVar(&opts.DataPath, "data", "", "local cart database (default in the user config dir)")

	cmd.AddCommand(
		newCartShowCommand(opts),
		newCartAddCommand(opts),
		newCartIncCommand(opts),
		newCartSetCommand(opts),
		newCartRemoveCommand(opts),
		newCartClearCommand(opts),
		newCartLoginCommand(opts),
		newCartLogoutCommand(opts),
		newCartCheckoutCommand(opts),
		newCartVerifyCommand(opts),
	)
	return cmd
}

// withCart opens the environment, runs fn and prints the cart afterwards
// unless fn returned an error.
func (o *CartOptions) withCart(cmd *cobra.Command, show bool, fn func(env *cartEnv) error) error {
	env, err := o.open()
	if err != nil {
		return err
	}
	defer env.Close()

	if err := fn(env); err != nil {
		return err
	}
	if show {
		return o.printCart(cmd, env.engine)
	}
	return nil
}

type cartView struct {
	Identity   string          `json:"identity"`
	Items      []cart.Line     `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func (o *CartOptions) printCart(cmd *cobra.Command, e *cart.Engine) error {
	view := cartView{
		Identity:   e.Identity().String(),
		Items:      e.Lines(),
		TotalItems: e.TotalItemCount(),
		TotalPrice: e.TotalPrice(),
	}
	out := cmd.OutOrStdout()
	if o.Format == "json" {
		return o.printJSON(out, view)
	}

	if len(view.Items) == 0 {
		fmt.Fprintf(out, "🛒 cart (%s) is empty\n", view.Identity)
		return nil
	}
	fmt.Fprintf(out, "🛒 cart (%s)\n", view.Identity)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range view.Items {
		fmt.Fprintf(tw, "%d\t%s\t%d/%d\t%s\t%s\n",
			l.ProductID, l.Name, l.Quantity, l.MaxStock,
			checkout.FormatAmount(l.UnitPrice), checkout.FormatAmount(l.Subtotal()))
	}
	tw.Flush()
	fmt.Fprintf(out, "%d item(s), total %s\n", view.TotalItems, checkout.FormatAmount(view.TotalPrice))
	return nil
}

func newCartShowCommand(opts *CartOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCart(cmd, true, func(*cartEnv) error { return nil })
		},
	}
}

func newCartAddCommand(opts *CartOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <product-id|slug> [quantity]",
		Short: "Add a product, clamped to what is in stock",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
				qty = n
			}
			return opts.withCart(cmd, true, func(env *cartEnv) error {
				p, err := env.api.CatalogProduct(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("look up %s: %w", args[0], err)
				}
				return env.engine.AddLine(cmd.Context(), client.ToCartProduct(p), qty)
			})
		},
	}
}

func newCartIncCommand(opts *CartOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inc <product-id>",
		Short: "Add one more of a product already in the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			return opts.withCart(cmd, true, func(env *cartEnv) error {
				err := env.engine.Increment(cmd.Context(), id)
				if errors.Is(err, cart.ErrStockLimit) {
					fmt.Fprintln(cmd.ErrOrStderr(), "⚠️ no more stock for this product")
					return nil
				}
				return err
			})
		},
	}
}

func newCartSetCommand(opts *CartOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set a line's quantity; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return opts.withCart(cmd, true, func(env *cartEnv) error {
				return env.engine.SetQuantity(cmd.Context(), id, qty)
			})
		},
	}
}

func newCartRemoveCommand(opts *CartOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			return opts.withCart(cmd, true, func(env *cartEnv) error {
				env.engine.RemoveLine(cmd.Context(), id)
				return nil
			})
		},
	}
}

func newCartClearCommand(opts *CartOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the local cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCart(cmd, true, func(env *cartEnv) error {
				env.engine.Clear()
				return nil
			})
		},
	}
}

func newCartLoginCommand(opts *CartOptions) *cobra.Command {
	var idToken, userID, token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in; the guest cart is merged into your account",
		Long: `Sign in with a Google ID token (--id-token), or with a storefront
token already issued for a user (--user and --token).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if idToken == "" && (userID == "" || token == "") {
				return errors.New("pass --id-token, or both --user and --token")
			}
			return opts.withCart(cmd, true, func(env *cartEnv) error {
				if idToken != "" {
					u, err := env.api.SignInWithGoogle(cmd.Context(), idToken)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "👤 signed in as %s\n", u.Email)
					return nil
				}
				return env.session.SignIn(userID, token)
			})
		},
	}
	cmd.Flags().StringVar(&idToken, "id-token", "", "Google ID token")
	cmd.Flags().StringVar(&userID, "user", "", "user id the token belongs to")
	cmd.Flags().StringVar(&token, "token", "", "storefront token")
	return cmd
}

func newCartLogoutCommand(opts *CartOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out; the signed-in cart is dropped from this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCart(cmd, true, func(env *cartEnv) error {
				return env.session.SignOut("")
			})
		},
	}
}

func newCartCheckoutCommand(opts *CartOptions) *cobra.Command {
	var (
		details checkout.Details
		method  string
		pay     bool
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Check stock, place the order and optionally open payment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			details.DeliveryMethod = models.DeliveryMethod(method)
			if err := checkout.ValidateDetails(details); err != nil {
				return err
			}
			return opts.withCart(cmd, false, func(env *cartEnv) error {
				ctx := cmd.Context()
				v := checkout.Validator{Stock: env.api}
				if err := v.Validate(ctx, env.engine); err != nil {
					var stockErr *checkout.StockError
					if errors.As(err, &stockErr) {
						for _, issue := range stockErr.Issues {
							fmt.Fprintln(cmd.ErrOrStderr(), "⚠️", issue.String())
						}
						fmt.Fprintln(cmd.ErrOrStderr(), "Your cart was updated. Review it and check out again.")
					}
					return err
				}

				lines := env.engine.Lines()
				sub := checkout.Submission{Details: details}
				for _, l := range lines {
					sub.Items = append(sub.Items, checkout.SubmissionItem{ProductID: l.ProductID, Quantity: l.Quantity})
				}
				total := env.engine.TotalPrice()
				sub.ClientTotal = &total

				receipt, err := env.api.SubmitOrder(ctx, sub)
				if err != nil {
					return fmt.Errorf("submit order: %w", err)
				}

				result := map[string]interface{}{
					"order_id":  receipt.OrderID,
					"reference": receipt.Reference,
					"total":     receipt.Total,
				}
				if pay {
					init, err := env.api.InitializePayment(ctx, receipt.OrderID)
					if err != nil {
						return fmt.Errorf("order %d placed but payment could not start: %w", receipt.OrderID, err)
					}
					result["authorization_url"] = init.AuthorizationURL
				}

				out := cmd.OutOrStdout()
				if opts.Format == "json" {
					return opts.printJSON(out, result)
				}
				fmt.Fprintf(out, "✅ order %d placed, reference %s, total %s\n",
					receipt.OrderID, receipt.Reference, checkout.FormatAmount(receipt.Total))
				if url, ok := result["authorization_url"]; ok {
					fmt.Fprintf(out, "💳 pay at %s\n", url)
				}
				fmt.Fprintf(out, "Then run: storefront cart verify %s\n", receipt.Reference)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&details.Name, "name", "", "full name")
	cmd.Flags().StringVar(&details.Email, "email", "", "email address")
	cmd.Flags().StringVar(&details.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&details.Address, "address", "", "delivery address (required for delivery)")
	cmd.Flags().StringVar(&method, "delivery", string(models.DeliveryMethodPickup), "pickup or delivery")
	cmd.Flags().BoolVar(&pay, "pay", false, "start a gateway checkout and print its URL")
	return cmd
}

func newCartVerifyCommand(opts *CartOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <reference>",
		Short: "Confirm payment with the server and clear the cart when paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCart(cmd, false, func(env *cartEnv) error {
				v, err := env.api.VerifyPayment(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				env.engine.Clear()
				if opts.Format == "json" {
					return opts.printJSON(cmd.OutOrStdout(), v)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ order %d is %s\n", v.OrderID, v.Status)
				return nil
			})
		},
	}
}

func parseProductID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return uint(n), nil
}
