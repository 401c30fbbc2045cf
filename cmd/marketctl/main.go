package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"

	"market_client/internal/app"
	"market_client/internal/config"
	"market_client/internal/models"
	"market_client/internal/pkg/currency"
	"market_client/internal/pkg/logger"
	"market_client/internal/session"
	"market_client/internal/transport"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. When login is set and a username is
// configured, it logs in and refreshes the session before returning.
func newApp(cmd *cobra.Command, login bool) (*app.App, error) {
	cfg, err := readConfig(cmd)
	if err != nil {
		return nil, err
	}

	l, err := logger.CreateLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a := app.NewApp(transport.NewExecutor(cfg.APIURL, l), session.New(), l)
	if !login || cfg.Username == "" {
		return a, nil
	}

	creds, err := credentials(cmd, cfg)
	if err != nil {
		return nil, err
	}
	if err := a.Login(cmd.Context(), creds); err != nil {
		return nil, fmt.Errorf("logging in as %s: %w", creds.Username, err)
	}
	a.Refresh(cmd.Context())
	return a, nil
}

func readConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if apiURL, _ := cmd.Flags().GetString("api"); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if username, _ := cmd.Flags().GetString("user"); username != "" {
		cfg.Username = username
		cfg.Password = ""
	}
	return cfg, nil
}

// credentials returns the configured credentials, prompting for the password
// when only the username is known.
func credentials(cmd *cobra.Command, cfg *config.Config) (models.UserQuery, error) {
	creds := models.UserQuery{Username: cfg.Username, Password: cfg.Password}
	if creds.Password != "" {
		return creds, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return creds, errors.New("no password given: set MARKET_PASSWORD or run in a terminal")
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s: ", creds.Username)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return creds, fmt.Errorf("reading password: %w", err)
	}
	creds.Password = string(password)
	return creds, nil
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func parseID(s string) (int32, error) {
	id, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return int32(id), nil
}

var rootCmd = &cobra.Command{
	Use:          "marketctl",
	Short:        "Command line client for the marketplace API",
	SilenceUsage: true,
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the API is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}

		greeting, err := a.Ping(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), greeting)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account for --user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Username == "" {
			return app.ErrMissingUsernameOrPassword
		}
		creds, err := credentials(cmd, cfg)
		if err != nil {
			return err
		}

		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		if err := a.Register(cmd.Context(), creds); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", creds.Username)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the session after logging in",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}

		snapshot := a.Session().Snapshot()
		if !snapshot.LoggedIn {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (balance %s, admin %t)\n", snapshot.Username, snapshot.Balance, snapshot.IsAdmin)
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user [id or username]",
	Short: "Look up a user, or yourself without an argument",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}

		ref := models.Self()
		if len(args) == 1 {
			ref = models.ParseUserRef(args[0])
		}
		user, err := a.LookupUser(cmd.Context(), ref)
		if err != nil {
			return fmt.Errorf("looking up %s: %w", ref, err)
		}
		return printJSON(cmd.OutOrStdout(), user)
	},
}

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List items for sale",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}

		var query *models.ItemQuery
		flags := cmd.Flags()
		if flags.Changed("search") || flags.Changed("offset") || flags.Changed("limit") || flags.Changed("all") {
			query = app.DefaultItemQuery()
			if flags.Changed("search") {
				search, _ := flags.GetString("search")
				query.SearchTerm = &search
			}
			if flags.Changed("offset") {
				offset, _ := flags.GetInt64("offset")
				query.Offset = &offset
			}
			if flags.Changed("limit") {
				limit, _ := flags.GetInt64("limit")
				query.Limit = &limit
			}
			all, _ := flags.GetBool("all")
			query.GetItemsWithoutStock = &all
		}

		items, err := a.ListItems(cmd.Context(), query)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tPRICE\tSTOCK\tSELLER\tATTACHMENTS")
		for _, item := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\n",
				item.ID, item.Title, currency.FormatCents(item.PriceCents), item.Amount, item.SellerID, len(item.Attachments))
		}
		return w.Flush()
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an image to attach to a listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}

		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer file.Close()

		attachment, err := a.UploadAttachment(cmd.Context(), filepath.Base(args[0]), file)
		if err != nil {
			return fmt.Errorf("uploading %s: %w", args[0], err)
		}
		return printJSON(cmd.OutOrStdout(), attachment)
	},
}

var sellCmd = &cobra.Command{
	Use:   "sell <title>",
	Short: "List a new item for sale",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}

		description, _ := cmd.Flags().GetString("description")
		amount, _ := cmd.Flags().GetInt("amount")
		price, _ := cmd.Flags().GetString("price")
		attachments, _ := cmd.Flags().GetInt32Slice("attachment")

		item, err := a.CreateItem(cmd.Context(), models.NewItemQuery{
			Title:       args[0],
			Description: description,
			Amount:      amount,
			Price:       price,
			Attachments: attachments,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), item)
	},
}

var buyCmd = &cobra.Command{
	Use:   "buy <item id>",
	Short: "Buy an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemID, err := parseID(args[0])
		if err != nil {
			return err
		}
		amount, _ := cmd.Flags().GetInt("amount")

		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		if err := a.Buy(cmd.Context(), models.BuyQuery{ItemID: itemID, Amount: amount}); err != nil {
			return err
		}

		a.Refresh(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "Bought %d of item %d, balance %s\n", amount, itemID, a.Session().Snapshot().Balance)
		return nil
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer <recipient> <amount>",
	Short: "Send money to another user, e.g. transfer bob 12.50",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cents, err := currency.ParseCents(args[1])
		if err != nil {
			return fmt.Errorf("amount %q: %w", args[1], err)
		}

		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		if err := a.Transfer(cmd.Context(), models.TransferQuery{Recipient: args[0], AmountCents: cents}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sent %s to %s\n", currency.FormatCents(cents), args[0])
		return nil
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the transaction log",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}

		scope := models.LogSelf()
		if all, _ := cmd.Flags().GetBool("all"); all {
			scope = models.LogForEveryone()
		} else if cmd.Flags().Changed("for") {
			userID, _ := cmd.Flags().GetInt32("for")
			scope = models.LogForUser(userID)
		}

		transactions, err := a.Transactions(cmd.Context(), scope)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPAYER\tRECEIVER\tAMOUNT\tTIME")
		for _, t := range transactions {
			fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n",
				t.ID, t.PayerID, t.ReceiverID, currency.FormatCents(t.AmountCents), t.TransactedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <password|currency|username> <value>",
	Short: "Ask the server whether a form value is acceptable",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		if err := a.Validate(cmd.Context(), models.ValidationKind(args[0]), args[1]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "OK")
		return nil
	},
}

// admin command
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative operations",
}

var adminPromoteCmd = &cobra.Command{
	Use:   "promote [user id]",
	Short: "Grant admin status, to yourself without an argument",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var userID *int32
		if len(args) == 1 {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			userID = &id
		}

		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		if err := a.Promote(cmd.Context(), userID); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Promoted")
		return nil
	},
}

var adminGiveCmd = &cobra.Command{
	Use:   "give <amount>",
	Short: "Add balance to a user, to yourself without --to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cents, err := currency.ParseCents(args[0])
		if err != nil {
			return fmt.Errorf("amount %q: %w", args[0], err)
		}

		query := models.AdminGiveQuery{AmountCents: cents}
		if cmd.Flags().Changed("to") {
			userID, _ := cmd.Flags().GetInt32("to")
			query.UserID = &userID
		}

		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		if err := a.Give(cmd.Context(), query); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Gave %s\n", currency.FormatCents(cents))
		return nil
	},
}

var adminClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all data from a debug backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		if err := a.ClearDatabase(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cleared")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "TOML config file")
	rootCmd.PersistentFlags().String("api", "", "API root, overrides MARKET_API_URL")
	rootCmd.PersistentFlags().StringP("user", "u", "", "Username to log in as, overrides MARKET_USERNAME")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(userCmd)

	rootCmd.AddCommand(itemsCmd)
	itemsCmd.Flags().StringP("search", "s", "", "Case-insensitive title search")
	itemsCmd.Flags().Int64("offset", 0, "Number of items to skip")
	itemsCmd.Flags().Int64P("limit", "n", 20, "Maximum number of items to show")
	itemsCmd.Flags().BoolP("all", "a", false, "Include items without stock")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(sellCmd)
	sellCmd.Flags().StringP("description", "d", "", "Item description")
	sellCmd.Flags().Int("amount", 1, "Units in stock")
	sellCmd.Flags().StringP("price", "p", "", "Unit price, e.g. 9.95")
	sellCmd.Flags().Int32Slice("attachment", nil, "Uploaded attachment id, repeatable")

	rootCmd.AddCommand(buyCmd)
	buyCmd.Flags().Int("amount", 1, "Units to buy")
	rootCmd.AddCommand(transferCmd)

	rootCmd.AddCommand(logCmd)
	logCmd.Flags().Int32("for", 0, "Show the log of this user id (debug backends)")
	logCmd.Flags().Bool("all", false, "Show every transaction (debug backends)")

	rootCmd.AddCommand(validateCmd)

	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminPromoteCmd)
	adminCmd.AddCommand(adminGiveCmd)
	adminGiveCmd.Flags().Int32("to", 0, "User id receiving the balance")
	adminCmd.AddCommand(adminClearCmd)
}
