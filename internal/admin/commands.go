package admin

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/gophjokes/internal/server/auth"
	"github.com/dmitrijs2005/gophjokes/internal/server/models"
	"github.com/dmitrijs2005/gophjokes/internal/server/services"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			s, err := c.connect(ctx)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, c.close()) }()

			if err := s.Repos.RunMigrations(ctx, s.DB); err != nil {
				return fmt.Errorf("migrations failed: %w", err)
			}
			c.logger.Info(ctx, "migrations applied", "driver", c.opts.driver)
			fmt.Fprintln(c.out, "migrations applied")
			return nil
		},
	}
}

func (c *cli) useraddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "useradd <username>",
		Short: "Create a user account",
		Long: `Create a user account with the same rules as the registration form.

The password is read from the terminal without echo, or as two lines from
standard input when it is not a terminal.

Examples:
  gophjokes-admin useradd kody
  printf 'twixrox\ntwixrox\n' | gophjokes-admin useradd kody`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			username := args[0]

			password, err := readNewPassword(bufio.NewReader(c.in), c.out)
			if err != nil {
				return err
			}

			s, err := c.connect(ctx)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, c.close()) }()

			users := services.NewUserService(s.DB, s.Repos, auth.NewPasswordHasher(), c.logger)
			u, err := users.Register(ctx, username, password)
			if err != nil {
				var vErr *services.ValidationError
				if errors.As(err, &vErr) {
					return fieldErrors(vErr)
				}
				return err
			}

			fmt.Fprintf(c.out, "created user %s (%s)\n", u.UserName, u.ID)
			return nil
		},
	}
}

// fieldErrors joins the messages of vErr into one error, in field order.
func fieldErrors(vErr *services.ValidationError) error {
	keys := make([]string, 0, len(vErr.Fields))
	for k := range vErr.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var err error
	for _, k := range keys {
		err = multierr.Append(err, errors.New(vErr.Fields[k]))
	}
	return err
}

type jokeRow struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	OwnerID   string    `json:"ownerId,omitempty" yaml:"ownerId,omitempty"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

func toRows(items []*models.Joke) []jokeRow {
	rows := make([]jokeRow, 0, len(items))
	for _, j := range items {
		rows = append(rows, jokeRow{ID: j.ID, Name: j.Name, OwnerID: j.OwnerID, CreatedAt: j.CreatedAt})
	}
	return rows
}

func (c *cli) jokesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jokes",
		Short: "Inspect jokes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the newest jokes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()

			switch c.opts.output {
			case "table", "json", "yaml":
			default:
				return fmt.Errorf("unknown output format %q", c.opts.output)
			}

			s, err := c.connect(ctx)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, c.close()) }()

			items, err := services.NewJokeService(s.DB, s.Repos, c.logger).List(ctx, limit)
			if err != nil {
				return err
			}
			return c.printJokes(toRows(items))
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", services.DefaultListLimit, "number of jokes to show")
	list.Flags().StringVarP(&c.opts.output, "output", "o", "table", "output format: table, json, yaml")

	cmd.AddCommand(list)
	return cmd
}

func (c *cli) printJokes(rows []jokeRow) error {
	switch c.opts.output {
	case "json":
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "yaml":
		enc := yaml.NewEncoder(c.out)
		defer enc.Close()
		return enc.Encode(rows)
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tOWNER\tCREATED")
	for _, r := range rows {
		owner := r.OwnerID
		if owner == "" {
			owner = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Name, owner, r.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
