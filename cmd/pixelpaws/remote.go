package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sethgrid/pixelpaws/internal/art"
	"github.com/sethgrid/pixelpaws/internal/health"
	"github.com/sethgrid/pixelpaws/internal/pet"
	"github.com/sethgrid/pixelpaws/internal/remote"
	"github.com/sethgrid/pixelpaws/internal/remotesync"
	"github.com/sethgrid/pixelpaws/internal/storage"
	"github.com/spf13/cobra"
)

// session is a loaded config plus a client for its backend.
type session struct {
	store  *storage.Store
	cfg    storage.Config
	client *remote.Client
}

func openSession() (*session, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	if _, err := store.EnsureDeviceID(); err != nil {
		return nil, err
	}
	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}
	if report := health.CheckSync(cfg.APIBase, cfg.APIToken, cfg.DeviceID); !report.Ready() {
		return nil, fmt.Errorf("remote sync is not configured: %s. Use 'pixelpaws config set'", report)
	}
	return &session{
		store:  store,
		cfg:    cfg,
		client: remote.New(cfg.APIBase, cfg.APIToken, nil),
	}, nil
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), remotesync.DefaultRequestTimeout)
}

var catsCmd = &cobra.Command{
	Use:   "cats",
	Short: "List the characters the backend offers",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		catalog, err := s.client.Catalog(ctx)
		if err != nil {
			return fmt.Errorf("failed to list cats: %w", err)
		}
		out := cmd.OutOrStdout()
		for _, e := range catalog.Entries {
			mark := " "
			if e.ID == s.cfg.SelectedCatID {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %s\t%s\n", mark, e.ID, e.Version)
		}
		return nil
	},
}

var catsSelectCmd = &cobra.Command{
	Use:   "select [id]",
	Short: "Choose which character this device shows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		id := args[0]
		ctx, cancel := requestContext(cmd)
		defer cancel()
		catalog, err := s.client.Catalog(ctx)
		if err != nil {
			return fmt.Errorf("failed to list cats: %w", err)
		}
		if _, ok := catalog.Lookup(id); !ok {
			return fmt.Errorf("unknown cat %q (available: %v)", id, catalog.IDs())
		}
		if _, err := s.client.PatchDeviceState(ctx, s.cfg.DeviceID, remote.StatePatch{SelectedCatID: &id}); err != nil {
			return fmt.Errorf("failed to update device: %w", err)
		}
		if err := s.store.SetSelectedCat(id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Selected %s\n", id)
		return nil
	},
}

func init() {
	catsCmd.AddCommand(catsSelectCmd)
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the remote state of this device",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		state, err := s.client.DeviceState(ctx, s.cfg.DeviceID)
		if err != nil {
			return fmt.Errorf("failed to fetch device state: %w", err)
		}
		printState(cmd, state)
		return nil
	},
}

func setVisibleCmd(use string, visible bool) *cobra.Command {
	short := "Hide the cat on this device"
	if visible {
		short = "Show the cat on this device"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			state, err := s.client.PatchDeviceState(ctx, s.cfg.DeviceID, remote.StatePatch{Visible: &visible})
			if err != nil {
				return fmt.Errorf("failed to update device: %w", err)
			}
			printState(cmd, state)
			return nil
		},
	}
}

func init() {
	stateCmd.AddCommand(setVisibleCmd("show", true))
	stateCmd.AddCommand(setVisibleCmd("hide", false))
}

func printState(cmd *cobra.Command, state remote.DeviceState) {
	out := cmd.OutOrStdout()
	visible := "unknown"
	if state.Visible != nil {
		visible = fmt.Sprint(*state.Visible)
	}
	sel := state.SelectedCatID
	if sel == "" {
		sel = "(none)"
	}
	fmt.Fprintf(out, "visible:  %s\n", visible)
	fmt.Fprintf(out, "selected: %s\n", sel)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local setup and how the cat is doing",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		cfg, err := store.Load()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "config:  %s\n", store.Path)
		device := cfg.DeviceID
		if device == "" {
			device = "(not assigned yet)"
		}
		fmt.Fprintf(out, "device:  %s\n", device)
		sel := cfg.SelectedCatID
		if sel == "" {
			sel = art.DefaultCharacter + " (bundled)"
		}
		fmt.Fprintf(out, "cat:     %s\n", sel)
		report := health.CheckSync(cfg.APIBase, cfg.APIToken, cfg.DeviceID)
		fmt.Fprintf(out, "sync:    %s\n", report)
		if u := cfg.ControlURL(); u != "" {
			fmt.Fprintf(out, "control: %s\n", u)
		}

		pose := pet.Idle
		if report.Ready() {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			defer cancel()
			state, err := remote.New(cfg.APIBase, cfg.APIToken, nil).DeviceState(ctx, cfg.DeviceID)
			switch {
			case err != nil:
				fmt.Fprintf(out, "remote:  unreachable (%v)\n", err)
			case state.Visible != nil && !*state.Visible:
				fmt.Fprintln(out, "remote:  hidden")
				pose = pet.LieDown
			default:
				fmt.Fprintln(out, "remote:  visible")
			}
		}

		fmt.Fprintln(out)
		for _, line := range art.Lines(art.PoseArt(pose), false) {
			fmt.Fprintln(out, line)
		}
		return nil
	},
}
