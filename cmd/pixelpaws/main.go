package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/sethgrid/pixelpaws/internal/art"
	"github.com/sethgrid/pixelpaws/internal/clock"
	"github.com/sethgrid/pixelpaws/internal/discovery"
	"github.com/sethgrid/pixelpaws/internal/health"
	"github.com/sethgrid/pixelpaws/internal/host/terminal"
	"github.com/sethgrid/pixelpaws/internal/pet"
	"github.com/sethgrid/pixelpaws/internal/remotesync"
	"github.com/sethgrid/pixelpaws/internal/server"
	"github.com/sethgrid/pixelpaws/internal/storage"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	configPath string
)

const Version = "v0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "pixelpaws",
		Short: "PixelPaws - a virtual cat that roams your terminal",
		Run: func(cmd *cobra.Command, args []string) {
			if version, _ := cmd.Flags().GetBool("version"); version {
				fmt.Println(Version)
				return
			}
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(deviceCmd)
	rootCmd.AddCommand(catsCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(adminCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openStore() (*storage.Store, error) {
	path, err := discovery.ResolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}
	return storage.NewStore(path), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Bring the cat onto the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		noSound, _ := cmd.Flags().GetBool("no-sound")
		assetDir, _ := cmd.Flags().GetString("assets")

		store, err := openStore()
		if err != nil {
			return err
		}
		deviceID, err := store.EnsureDeviceID()
		if err != nil {
			return fmt.Errorf("failed to prepare device id: %w", err)
		}
		cfg, err := store.Load()
		if err != nil {
			return err
		}

		// tcell owns the terminal, so logs go to a file next to the config.
		logPath := discovery.LogPathFor(store.Path)
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logFile.Close()
		logger := log.New(logFile, "[pixelpaws] ", log.LstdFlags)

		ctx, stop := signalContext()
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		loop := clock.NewLoop(clock.DefaultFrameInterval)
		var ctrl *pet.Controller
		syncer := remotesync.New(store, loop, applierFunc(func() *pet.Controller { return ctrl }), remotesync.Options{Logger: logger})
		assets := syncer.InitialAssets(ctx, art.Bundled(assetDir))

		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to open terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("failed to init terminal: %w", err)
		}
		defer screen.Fini()

		var sound terminal.Sounder
		if !noSound {
			if sp, err := terminal.NewSpeaker(0.4); err != nil {
				// Non-fatal, the cat can run without sound
				logger.Printf("audio initialization failed: %v", err)
			} else {
				sound = sp
				defer sp.Close()
			}
		}

		host := terminal.New(screen, terminal.Options{
			Sound:  sound,
			Logger: logger,
			PanelText: func() []string {
				c, err := store.Load()
				if err != nil {
					return []string{err.Error()}
				}
				return panelLines(c, deviceID)
			},
		})

		tuning := cfg.Tuning()
		sprite := terminal.SpriteSize()
		tuning.SpriteWidth, tuning.SpriteHeight = sprite.Width, sprite.Height
		ctrl = pet.New(loop, host, host, pet.Options{
			Tuning: tuning,
			Assets: assets,
			Logger: logger,
		})
		loop.Post(ctrl.Start)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return loop.Run(gctx) })
		g.Go(func() error { return syncer.Run(gctx) })
		g.Go(func() error {
			defer cancel()
			return host.Run(gctx, loop, ctrl)
		})
		return g.Wait()
	},
}

func init() {
	runCmd.Flags().Bool("no-sound", false, "Disable the catch chirp")
	runCmd.Flags().String("assets", "", "Directory of bundled pose assets")
}

// applierFunc forwards remote changes to a controller created later.
type applierFunc func() *pet.Controller

func (f applierFunc) SetVisible(v bool) {
	if c := f(); c != nil {
		c.SetVisible(v)
	}
}

func (f applierFunc) ReloadAssets(a pet.Assets) {
	if c := f(); c != nil {
		c.ReloadAssets(a)
	}
}

func panelLines(cfg storage.Config, deviceID string) []string {
	sel := cfg.SelectedCatID
	if sel == "" {
		sel = art.DefaultCharacter + " (bundled)"
	}
	lines := []string{
		"device: " + deviceID,
		"cat:    " + sel,
		"sync:   " + health.CheckSync(cfg.APIBase, cfg.APIToken, deviceID).String(),
	}
	if u := cfg.ControlURL(); u != "" {
		lines = append(lines, "", "control panel:", u)
	}
	lines = append(lines, "", "[p] close")
	return lines
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the device-state and character backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := server.ParseEnv()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("db") {
			cfg.DBPath, _ = cmd.Flags().GetString("db")
		}
		if cmd.Flags().Changed("token") {
			cfg.Token, _ = cmd.Flags().GetString("token")
		}
		if cmd.Flags().Changed("seed") {
			cfg.SeedPath, _ = cmd.Flags().GetString("seed")
		}

		ctx, stop := signalContext()
		defer stop()

		logger := log.New(os.Stderr, "[pixelpaws] ", log.LstdFlags)
		srv, err := server.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer srv.Close()
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (env PIXELPAWS_ADDR)")
	serveCmd.Flags().String("db", "", "SQLite database path (env PIXELPAWS_DB)")
	serveCmd.Flags().String("token", "", "Bearer token required by /v1 (env PIXELPAWS_TOKEN)")
	serveCmd.Flags().String("seed", "", "YAML file of extra characters (env PIXELPAWS_SEED)")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the local config",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the config document",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		cfg, err := store.Load()
		if err != nil {
			return err
		}
		if cfg.APIToken != "" {
			cfg.APIToken = "********"
		}
		return writeTOML(cmd.OutOrStdout(), cfg)
	},
}

var configSetCmd = &cobra.Command{
	Use:       "set [key] [value]",
	Short:     "Set one config key",
	ValidArgs: []string{"apiBase", "apiToken", "selectedCatId", "deviceId", "webBase"},
	Args:      cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if _, err := store.Update(func(c *storage.Config) error {
			return c.Set(args[0], args[1])
		}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where the config is read from",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), store.Path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
}

func writeTOML(w io.Writer, v any) error {
	data, err := toml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Print this installation's device id",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		id, err := store.EnsureDeviceID()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Print the control panel link for this device",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if _, err := store.EnsureDeviceID(); err != nil {
			return err
		}
		cfg, err := store.Load()
		if err != nil {
			return err
		}
		u := cfg.ControlURL()
		if u == "" {
			return fmt.Errorf("webBase is not set. Use 'pixelpaws config set webBase <url>'")
		}
		fmt.Fprintln(cmd.OutOrStdout(), u)
		return nil
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative commands",
}

var adminCompletionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for pixelpaws.

To load completions:

Bash:
  $ source <(pixelpaws admin completion bash)

Zsh:
  $ pixelpaws admin completion zsh > "${fpath[1]}/_pixelpaws"

Fish:
  $ pixelpaws admin completion fish | source

PowerShell:
  PS> pixelpaws admin completion powershell | Out-String | Invoke-Expression
`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cmd.Root()
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return root.GenBashCompletion(out)
		case "zsh":
			return root.GenZshCompletion(out)
		case "fish":
			return root.GenFishCompletion(out, true)
		case "powershell":
			return root.GenPowerShellCompletion(out)
		}
		return fmt.Errorf("unsupported shell: %s", args[0])
	},
}

var adminArtCmd = &cobra.Command{
	Use:   "art [pose|list]",
	Short: "Show the terminal frame for a pose or list poses",
	Long: `Show the terminal frame for a pose.

Examples:
  pixelpaws admin art walk             # Show the walk frame
  pixelpaws admin art --mirrored run   # Show the run frame facing left
  pixelpaws admin art list             # List all poses`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if args[0] == "list" {
			for _, p := range pet.Poses() {
				fmt.Fprintln(out, p)
			}
			return nil
		}
		p, err := pet.ParsePose(args[0])
		if err != nil {
			return err
		}
		mirrored, _ := cmd.Flags().GetBool("mirrored")
		for _, line := range art.Lines(art.PoseArt(p), mirrored) {
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	adminArtCmd.Flags().Bool("mirrored", false, "Face left")
	adminCmd.AddCommand(adminCompletionCmd)
	adminCmd.AddCommand(adminArtCmd)
}
