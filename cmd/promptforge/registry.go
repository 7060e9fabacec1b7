package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// registerCmd appends a new version of an artifact
func registerCmd() *cobra.Command {
	var contentFile string
	var metadata []string

	cmd := &cobra.Command{
		Use:   "register <artifact> [content]",
		Short: "Register a new version of an artifact",
		Long: `Register a new version of an artifact. Content comes from the second
argument or from --file. The first registration creates version 1.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var content string
			switch {
			case contentFile != "":
				data, err := os.ReadFile(contentFile)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", contentFile, err)
				}
				content = string(data)
			case len(args) == 2:
				content = args[1]
			default:
				return fmt.Errorf("content required: pass it as an argument or via --file")
			}

			meta, err := parseMetadata(metadata)
			if err != nil {
				return err
			}

			pool, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			version, err := newRegistryService(pool).Register(ctx, args[0], content, meta)
			if err != nil {
				return err
			}

			fmt.Printf("Registered %s version %d (%s)\n", version.Artifact, version.Number, version.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&contentFile, "file", "f", "", "Read content from a file")
	cmd.Flags().StringArrayVarP(&metadata, "metadata", "m", nil, "Metadata entry key=value (repeatable)")
	return cmd
}

// getCmd resolves a selector and prints the version's content
func getCmd() *cobra.Command {
	var showMetadata bool

	cmd := &cobra.Command{
		Use:   "get <artifact> [selector]",
		Short: "Fetch a version by number, alias, or latest",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			selector := ""
			if len(args) == 2 {
				selector = args[1]
			}

			pool, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			version, err := newRegistryService(pool).Get(ctx, args[0], selector)
			if err != nil {
				return err
			}

			if showMetadata {
				fmt.Printf("Artifact: %s\n", version.Artifact)
				fmt.Printf("Version:  %d\n", version.Number)
				fmt.Printf("ID:       %s\n", version.ID)
				fmt.Printf("Created:  %s\n", version.CreatedAt.Format("2006-01-02 15:04:05"))
				for k, v := range version.Metadata {
					fmt.Printf("  %s: %s\n", k, v)
				}
				fmt.Println()
			}
			fmt.Println(version.Content)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showMetadata, "metadata", false, "Print version metadata before the content")
	return cmd
}

// versionsCmd lists all versions of an artifact
func versionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions <artifact>",
		Short: "List all versions of an artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			versions, err := newRegistryService(pool).ListVersions(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%-8s %-24s %-20s %s\n", "VERSION", "ID", "CREATED", "PREVIEW")
			for _, v := range versions {
				preview := v.Content
				if len(preview) > 48 {
					preview = preview[:45] + "..."
				}
				preview = strings.ReplaceAll(preview, "\n", " ")
				fmt.Printf("%-8d %-24s %-20s %s\n",
					v.Number, v.ID, v.CreatedAt.Format("2006-01-02 15:04:05"), preview)
			}
			return nil
		},
	}
}

// aliasCmd binds an alias to a version
func aliasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alias <artifact> <alias> <version>",
		Short: "Bind an alias to a version",
		Long: `Bind an alias to an existing version. Re-binding an alias moves it;
an alias always points at exactly one version.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			number, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("version must be a number, got %q", args[2])
			}

			pool, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := newRegistryService(pool).SetAlias(ctx, args[0], args[1], number); err != nil {
				return err
			}

			fmt.Printf("Alias %s -> %s version %d\n", args[1], args[0], number)
			return nil
		},
	}
}

// unaliasCmd removes an alias binding
func unaliasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unalias <artifact> <alias>",
		Short: "Remove an alias binding",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			existed, err := newRegistryService(pool).DeleteAlias(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			if existed {
				fmt.Printf("Removed alias %s from %s\n", args[1], args[0])
			} else {
				fmt.Printf("Alias %s was not set on %s\n", args[1], args[0])
			}
			return nil
		},
	}
}

// parseMetadata turns repeated key=value flags into a map.
func parseMetadata(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, found := strings.Cut(entry, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid metadata entry %q, want key=value", entry)
		}
		meta[key] = value
	}
	return meta, nil
}
