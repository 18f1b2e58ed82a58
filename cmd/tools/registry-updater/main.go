// cmd/tools/registry-updater/main.go
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mergington-activities/internal/activities"
	"mergington-activities/pkg/registry"
)

const defaultRegistryPath = "configs/activities.json"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var registryPath string

	root := &cobra.Command{
		Use:          "registry-updater",
		Short:        "Maintain activity seed files",
		Long:         "Create, edit and validate the JSON or YAML seed files read by activities-api (registry.seed_file).",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&registryPath, "path", "p", defaultRegistryPath, "path to registry file (.json, .yaml or .yml)")

	root.AddCommand(
		newExportCmd(&registryPath),
		newAddCmd(&registryPath),
		newUpdateCmd(&registryPath),
		newValidateCmd(&registryPath),
	)
	return root
}

func newExportCmd(path *string) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the built-in activity set to the registry file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(*path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", *path)
			}
			reg, err := activities.New(activities.DefaultSeed())
			if err != nil {
				return err
			}
			if err := registry.SaveRegistry(activities.ToFile(reg.List(), "1.0.0"), *path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d activities to %s\n", len(activities.DefaultSeed()), *path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newAddCmd(path *string) *cobra.Command {
	var (
		name            string
		description     string
		schedule        string
		maxParticipants int
		participants    []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new activity",
		Example: `  registry-updater add --name "Robotics Club" --max 10 \
    --description "Build and program robots" --schedule "Tuesdays, 4:00 PM - 5:30 PM"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				if !os.IsNotExist(err) {
					return fmt.Errorf("failed to load registry: %w", err)
				}
				reg = &registry.File{Version: "1.0.0"}
			}
			if reg.Find(name) >= 0 {
				return fmt.Errorf("activity %q already exists", name)
			}

			reg.Activities = append(reg.Activities, registry.Activity{
				Name:            name,
				Description:     description,
				Schedule:        schedule,
				MaxParticipants: maxParticipants,
				Participants:    participants,
			})
			if err := save(reg, *path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added activity: %s\n", name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "activity name (exact, case-sensitive)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description")
	cmd.Flags().StringVarP(&schedule, "schedule", "s", "", "human-readable schedule")
	cmd.Flags().IntVarP(&maxParticipants, "max", "m", 20, "max_participants")
	cmd.Flags().StringSliceVar(&participants, "participant", nil, "initial participant email (repeatable)")
	return cmd
}

func newUpdateCmd(path *string) *cobra.Command {
	var name, field, value string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change one field of an activity",
		Long:  "Change one field of an activity. Fields: description, schedule, max_participants.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || field == "" {
				return fmt.Errorf("--name and --field are required")
			}

			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			i := reg.Find(name)
			if i < 0 {
				return fmt.Errorf("activity %q not found", name)
			}

			a := &reg.Activities[i]
			switch field {
			case "description":
				a.Description = value
			case "schedule":
				a.Schedule = value
			case "max_participants":
				n, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("invalid max_participants value: %w", err)
				}
				a.MaxParticipants = n
			default:
				return fmt.Errorf("unknown field: %s", field)
			}

			if err := save(reg, *path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", name, field, value)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "activity name")
	cmd.Flags().StringVarP(&field, "field", "f", "", "field to update")
	cmd.Flags().StringVarP(&value, "value", "v", "", "new value")
	return cmd
}

func newValidateCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a registry file against the seed schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				var verr *registry.ValidationError
				if errors.As(err, &verr) {
					return fmt.Errorf("registry validation failed:\n  - %s", strings.Join(verr.Problems, "\n  - "))
				}
				return fmt.Errorf("failed to load registry: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed (%d activities).\n", len(reg.Activities))
			return nil
		},
	}
}

// save validates before writing so a bad edit never reaches disk.
func save(reg *registry.File, path string) error {
	if err := registry.Validate(reg); err != nil {
		return err
	}
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return registry.SaveRegistry(reg, path)
}
