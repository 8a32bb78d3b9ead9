package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/internal/activity"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/config"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/store"
)

const (
	keyAPIURL = "api_url"

	apiURLFlag      = "api-url"
	databaseURLFlag = "database-url"
	nameFlag        = "name"
	emailFlag       = "email"
	titleFlag       = "title"
	contentFlag     = "content"
	userIDFlag      = "user-id"
	dayFlag         = "day"
)

var userFlags = map[string]cobraflags.Flag{
	nameFlag: &cobraflags.StringFlag{
		Name:  nameFlag,
		Usage: "User name",
	},
	emailFlag: &cobraflags.StringFlag{
		Name:  emailFlag,
		Usage: "User email",
	},
}

var postFlags = map[string]cobraflags.Flag{
	titleFlag: &cobraflags.StringFlag{
		Name:  titleFlag,
		Usage: "Post title",
	},
	contentFlag: &cobraflags.StringFlag{
		Name:  contentFlag,
		Usage: "Post content",
	},
	userIDFlag: &cobraflags.StringFlag{
		Name:  userIDFlag,
		Usage: "Author user id",
	},
}

var activityFlags = map[string]cobraflags.Flag{
	databaseURLFlag: &cobraflags.StringFlag{
		Name:  databaseURLFlag,
		Usage: "Activity database URL (env ACTIVITY_DATABASE_URL, then DATABASE_URL)",
	},
	dayFlag: &cobraflags.StringFlag{
		Name:  dayFlag,
		Usage: "Only show this day (YYYY-MM-DD, or \"today\")",
	},
}

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		printFail(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	v := config.New()
	v.SetDefault(keyAPIURL, "http://localhost:5001")

	root := &cobra.Command{
		Use:           "apictl",
		Short:         "Operate the users and posts API from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String(apiURLFlag, "", "Base URL of the api-service (env API_URL)")
	_ = v.BindPFlag(keyAPIURL, root.PersistentFlags().Lookup(apiURLFlag))

	api := func() *client { return newClient(v.GetString(keyAPIURL)) }

	root.AddCommand(
		newHealthCommand(out, api),
		newUsersCommand(out, api),
		newPostsCommand(out, api),
		newActivityCommand(out, v),
	)
	return root
}

func newHealthCommand(out io.Writer, api func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API and its database answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := api().health(cmd.Context()); err != nil {
				return err
			}
			printOK(out, "api healthy")
			return nil
		},
	}
}

func newUsersCommand(out io.Writer, api func() *client) *cobra.Command {
	users := &cobra.Command{Use: "users", Short: "List, show, create and delete users"}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := api().createUser(cmd.Context(),
				userFlags[nameFlag].GetString(), userFlags[emailFlag].GetString())
			if err != nil {
				return err
			}
			printOK(out, "created user #%d %s <%s>", u.ID, u.Name, u.Email)
			return nil
		},
	}
	cobraflags.RegisterMap(create, userFlags)

	users.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all users",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				list, err := api().listUsers(cmd.Context())
				if err != nil {
					return err
				}
				printUsers(out, list)
				return nil
			},
		},
		&cobra.Command{
			Use:   "get ID",
			Short: "Show a user and their posts",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				u, err := api().getUser(cmd.Context(), id)
				if err != nil {
					return err
				}
				printUser(out, u)
				return nil
			},
		},
		create,
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a user and their posts",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := api().deleteUser(cmd.Context(), id); err != nil {
					return err
				}
				printOK(out, "deleted user #%d", id)
				return nil
			},
		},
	)
	return users
}

func newPostsCommand(out io.Writer, api func() *client) *cobra.Command {
	posts := &cobra.Command{Use: "posts", Short: "List, create and delete posts"}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := parseID(postFlags[userIDFlag].GetString())
			if err != nil {
				return fmt.Errorf("--%s: %w", userIDFlag, err)
			}
			p, err := api().createPost(cmd.Context(), userID,
				postFlags[titleFlag].GetString(), postFlags[contentFlag].GetString())
			if err != nil {
				return err
			}
			printOK(out, "created post #%d %q by %s", p.ID, p.Title, p.Author.Name)
			return nil
		},
	}
	cobraflags.RegisterMap(create, postFlags)

	posts.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all posts with their authors",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				list, err := api().listPosts(cmd.Context())
				if err != nil {
					return err
				}
				printPosts(out, list)
				return nil
			},
		},
		create,
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a post",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := api().deletePost(cmd.Context(), id); err != nil {
					return err
				}
				printOK(out, "deleted post #%d", id)
				return nil
			},
		},
	)
	return posts
}

// newActivityCommand reads the activity consumer's counters straight from its database.
func newActivityCommand(out io.Writer, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show event counters recorded by the activity consumer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			url := activityFlags[databaseURLFlag].GetString()
			if url == "" {
				url = config.LoadForService(store.ServiceActivity).DatabaseURL
			}
			db, dialect, err := store.Connect(ctx, url, store.ConnectOptions{Attempts: 1})
			if err != nil {
				return err
			}
			logger := config.FromViper(v).NewLogger(io.Discard)
			s := store.New(db, dialect, store.WithLogger(logger))
			defer s.Close()

			day := activityFlags[dayFlag].GetString()
			if day == "today" {
				day = time.Now().UTC().Format("2006-01-02")
			}

			consumer := activity.NewConsumer(s, logger)
			metrics, err := consumer.Metrics(ctx, day, 30)
			if err != nil {
				return err
			}
			printMetrics(out, metrics)

			if day == "" {
				totals, err := consumer.Totals(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				printTotals(out, totals)
			}
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, activityFlags)
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
