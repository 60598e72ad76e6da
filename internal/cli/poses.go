package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/ffbridge/internal/skeleton"
	"github.com/ayusman/ffbridge/internal/store"
)

func (a *app) newPosesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poses",
		Short: "Manage the stored pose library",
	}
	cmd.AddCommand(
		a.newPosesListCmd(),
		a.newPosesImportCmd(),
		a.newPosesExportCmd(),
		a.newPosesDeleteCmd(),
	)
	return cmd
}

// withStore opens the configured pose store for the duration of fn.
func (a *app) withStore(fn func(st *store.Store) error) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func (a *app) newPosesListCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored poses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k := store.PoseKind(kind)
			if k != "" && !k.Valid() {
				return fmt.Errorf("unknown pose kind %q", kind)
			}

			return a.withStore(func(st *store.Store) error {
				poses, err := st.Poses().List(k)
				if err != nil {
					return fmt.Errorf("failed to list poses: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(poses) == 0 {
					fmt.Fprintln(out, "No poses found.")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tKIND\tSAMPLES\tUPDATED\tID")
				for _, p := range poses {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
						p.Name, p.Kind, p.Samples, p.UpdatedAt.Format("2006-01-02 15:04"), p.ID)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind: reference or interactable")
	return cmd
}

func (a *app) newPosesImportCmd() *cobra.Command {
	var (
		kind        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "import <name> <pose.json>",
		Short: "Store a pose from a JSON file, replacing any pose with the same name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]

			k := store.PoseKind(kind)
			if !k.Valid() {
				return fmt.Errorf("unknown pose kind %q", kind)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read pose file: %w", err)
			}
			var pose skeleton.Pose
			if err := json.Unmarshal(data, &pose); err != nil {
				return fmt.Errorf("failed to parse pose file: %w", err)
			}

			return a.withStore(func(st *store.Store) error {
				p, err := st.Poses().GetByName(name)
				switch {
				case errors.Is(err, store.ErrNotFound):
					p = &store.Pose{Name: name, Kind: k, Description: description}
					if err := st.Poses().Create(p); err != nil {
						return fmt.Errorf("failed to create pose: %w", err)
					}
				case err != nil:
					return err
				default:
					p.Kind = k
					if description != "" {
						p.Description = description
					}
					if err := st.Poses().Update(p); err != nil {
						return fmt.Errorf("failed to update pose: %w", err)
					}
				}

				if err := st.Poses().SetBones(p.ID, pose); err != nil {
					return fmt.Errorf("failed to store bones: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%s)\n", p.Name, p.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(store.PoseKindReference), "pose kind: reference or interactable")
	cmd.Flags().StringVar(&description, "description", "", "pose description")
	return cmd
}

func (a *app) newPosesExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Write a stored pose as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(st *store.Store) error {
				_, pose, err := st.Poses().LoadByName(args[0])
				if err != nil {
					return fmt.Errorf("failed to load pose %s: %w", args[0], err)
				}

				var w io.Writer = cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("failed to create output file: %w", err)
					}
					defer f.Close()
					w = f
				}

				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(pose)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func (a *app) newPosesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored pose",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(st *store.Store) error {
				p, err := st.Poses().GetByName(args[0])
				if err != nil {
					return fmt.Errorf("failed to find pose %s: %w", args[0], err)
				}
				if err := st.Poses().Delete(p.ID); err != nil {
					return fmt.Errorf("failed to delete pose: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", p.Name)
				return nil
			})
		},
	}
}
