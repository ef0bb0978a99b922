package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yatube/yatube/config"
	"github.com/yatube/yatube/controllers"
	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/routes"
	"github.com/yatube/yatube/utils"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "yatube",
		Short:         "Yatube blogging server",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(configPath)
			return utils.InitLogger(cfg)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (.json, .yaml or .yml)")

	root.AddCommand(serveCmd(), migrateCmd(), groupCmd(), cacheCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			middleware.InitSessionStore(cfg.SessionSecret, cfg.SecureCookies)
			db := config.InitDatabase()
			r := routes.SetupRouter(db, cfg)

			srv := utils.NewServer(":"+cfg.AppPort, r)
			srv.OnShutdown = func() {
				_ = utils.Logger.Sync()
			}
			utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
			return srv.ListenAndServe()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.InitDatabase()
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func groupCmd() *cobra.Command {
	group := &cobra.Command{
		Use:   "group",
		Short: "Manage post groups",
	}

	var title, slug, description string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := controllers.CreateGroup(config.InitDatabase(), title, slug, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created group %d %s\n", g.ID, g.Slug)
			return nil
		},
	}
	add.Flags().StringVar(&title, "title", "", "group title")
	add.Flags().StringVar(&slug, "slug", "", "unique slug used in /group/<slug>/")
	add.Flags().StringVar(&description, "description", "", "group description")
	_ = add.MarkFlagRequired("title")
	_ = add.MarkFlagRequired("slug")

	list := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			var groups []models.Group
			if err := config.InitDatabase().Order("title ASC").Find(&groups).Error; err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSLUG\tTITLE")
			for _, g := range groups {
				fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
			}
			return w.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a group; its posts are kept without a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := controllers.DeleteGroup(config.InitDatabase(), args[0]); err != nil {
				return fmt.Errorf("delete group %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted group %s\n", args[0])
			return nil
		},
	}

	group.AddCommand(add, list, del)
	return group
}

func cacheCmd() *cobra.Command {
	cache := &cobra.Command{
		Use:   "cache",
		Short: "Manage the page cache",
	}
	cache.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop all cached index pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			n := utils.InvalidateByPrefix(middleware.CachePrefix(controllers.IndexCacheName))
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached pages\n", n)
			return nil
		},
	})
	return cache
}
