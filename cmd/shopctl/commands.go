package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/athebyme/gomarket-storefront/internal/domain/cart"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/internal/domain/shop"
	"github.com/athebyme/gomarket-storefront/internal/security"
	"github.com/spf13/cobra"
)

type queryOptions struct {
	path     string
	clear    bool
	toggle   []string
	untoggle []string
	minPrice int
	maxPrice int
	search   string
	page     int
}

type queryOutput struct {
	URL          string      `json:"url"`
	CatalogQuery string      `json:"catalog_query"`
	Chips        []shop.Chip `json:"chips"`
	History      []string    `json:"history,omitempty"`
}

func (c *cli) queryCmd() *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query [raw-query]",
		Short: "Decode a listing address and apply filter intents",
		Long: `Decode a listing query string, apply the requested intents in order
(clear, toggles, price, search, page) and print the resulting address,
the query sent to the catalog and the applied filter chips.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			return c.runQuery(cmd, raw, opts)
		},
	}
	cmd.Flags().StringVar(&opts.path, "path", "/shop", "Listing path")
	cmd.Flags().BoolVar(&opts.clear, "clear", false, "Clear all filters first")
	cmd.Flags().StringArrayVar(&opts.toggle, "toggle", nil, "Check an option, group:option")
	cmd.Flags().StringArrayVar(&opts.untoggle, "untoggle", nil, "Uncheck an option, group:option")
	cmd.Flags().IntVar(&opts.minPrice, "min", -1, "Minimum price")
	cmd.Flags().IntVar(&opts.maxPrice, "max", -1, "Maximum price")
	cmd.Flags().StringVar(&opts.search, "search", "", "Search term")
	cmd.Flags().IntVar(&opts.page, "page", 0, "Page number")
	return cmd
}

func (c *cli) runQuery(cmd *cobra.Command, raw string, opts *queryOptions) error {
	ctx, cancel := c.context(cmd)
	defer cancel()

	infra, svc, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer infra.Close(c.log)

	loc := shop.NewMemoryLocation(opts.path, raw)
	ctrl := svc.Storefront.Controller(ctx, loc, loc)
	defer ctrl.Close()

	if opts.clear {
		if _, err := ctrl.ClearAll(); err != nil {
			return err
		}
	}
	for _, pair := range opts.toggle {
		if err := toggle(ctrl, pair, true); err != nil {
			return err
		}
	}
	for _, pair := range opts.untoggle {
		if err := toggle(ctrl, pair, false); err != nil {
			return err
		}
	}
	if opts.minPrice >= 0 || opts.maxPrice >= 0 {
		sel := ctrl.Selection()
		min, max := sel.Price.Min, sel.Price.Max
		if opts.minPrice >= 0 {
			min = opts.minPrice
		}
		if opts.maxPrice >= 0 {
			max = opts.maxPrice
		}
		if _, err := ctrl.ApplyPriceRange(min, max); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("search") {
		if _, err := ctrl.SetSearch(opts.search); err != nil {
			return err
		}
	}
	if opts.page != 0 {
		if _, err := ctrl.ChangePage(opts.page); err != nil {
			return err
		}
	}

	return printJSON(cmd.OutOrStdout(), queryOutput{
		URL:          loc.URL(),
		CatalogQuery: ctrl.Query().Encode(),
		Chips:        ctrl.AppliedFilters(),
		History:      loc.History(),
	})
}

func toggle(ctrl *shop.Controller, pair string, checked bool) error {
	group, option, ok := strings.Cut(pair, ":")
	if !ok || group == "" || option == "" {
		return fmt.Errorf("toggle %q must look like group:option", pair)
	}
	_, err := ctrl.ToggleFilterOption(group, option, checked)
	return err
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <context> [raw-query]",
		Short: "Load a listing page from the catalog",
		Long: `Load one page of a storefront context (shop, new-arrivals, best-sellers
or sale) for the given query string.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			lc, ok := shop.LookupContext(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", shop.ErrUnknownContext, args[0])
			}
			raw := ""
			if len(args) == 2 {
				raw = args[1]
			}

			infra, svc, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer infra.Close(c.log)

			view, err := svc.Storefront.Listing(ctx, cliSession, lc.Name, shop.NewMemoryLocation("/"+lc.Name, raw))
			if err != nil {
				if view.Result.Error != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), view.Result.Error)
				}
				return err
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
}

type productOptions struct {
	color    string
	size     string
	quantity int
}

type productOutput struct {
	services.ProductView
	CanAdd  bool   `json:"can_add"`
	Message string `json:"message,omitempty"`
}

func (c *cli) productCmd() *cobra.Command {
	opts := &productOptions{}
	cmd := &cobra.Command{
		Use:   "product <slug>",
		Short: "Resolve a product variant and check the quantity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			infra, svc, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer infra.Close(c.log)

			change := services.SelectionChange{Color: opts.color, Size: opts.size}
			if opts.quantity > 0 {
				change.Quantity = &opts.quantity
			}
			view, err := svc.Storefront.UpdateSelection(ctx, cliSession, args[0], change)
			if err != nil {
				return err
			}

			out := productOutput{ProductView: view, CanAdd: true}
			if err := svc.Sessions.GetOrCreate(cliSession).Product.Validate(); err != nil {
				out.CanAdd = false
				out.Message = err.Error()
				var verr *cart.ValidationError
				if errors.As(err, &verr) {
					out.Message = verr.UserMessage()
				}
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&opts.color, "color", "", "Color to select")
	cmd.Flags().StringVar(&opts.size, "size", "", "Size to select")
	cmd.Flags().IntVarP(&opts.quantity, "quantity", "q", 0, "Requested quantity")
	return cmd
}

type suggestOutput struct {
	Term        string                    `json:"term"`
	Suggestions []models.SearchSuggestion `json:"suggestions"`
}

func (c *cli) suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <term>",
		Short: "Type a search term and print debounced suggestions",
		Long: `Feed the term to the search box one character at a time. Only the last
input reaches the catalog; terms shorter than two characters give no suggestions.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			infra, svc, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer infra.Close(c.log)

			searcher := shop.NewSearcher(ctx, svc.Storefront.Suggest, c.log, c.cfg.Shop.SearchDebounce)
			defer searcher.Close()

			var (
				mu  sync.Mutex
				out = suggestOutput{Suggestions: []models.SearchSuggestion{}}
			)
			searcher.OnResults(func(term string, results []models.SearchSuggestion) {
				mu.Lock()
				defer mu.Unlock()
				out.Term = term
				if results != nil {
					out.Suggestions = results
				}
			})

			term := []rune(strings.Join(args, " "))
			for i := 1; i <= len(term); i++ {
				searcher.Type(string(term[:i]))
			}
			searcher.Flush()

			mu.Lock()
			defer mu.Unlock()
			if out.Term == "" {
				out.Term = strings.TrimSpace(string(term))
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

type tokenOptions struct {
	userID   string
	username string
	email    string
	roles    []string
}

func (c *cli) tokenCmd() *cobra.Command {
	opts := &tokenOptions{}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT",
		Long:  `Mint a JWT signed with security.jwtSecret, accepted by the storefront API.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := security.NewJWTManager(c.cfg.Security.JWTSecret, c.cfg.Security.JWTExpiration, c.cfg.Security.JWTIssuer)
			if err != nil {
				return err
			}
			token, err := m.Generate(opts.userID, opts.username, opts.email, opts.roles)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.userID, "user", "dev-user", "User ID")
	cmd.Flags().StringVar(&opts.username, "name", "developer", "Username")
	cmd.Flags().StringVar(&opts.email, "email", "", "Email")
	cmd.Flags().StringSliceVar(&opts.roles, "role", nil, "Role, repeatable")
	return cmd
}
