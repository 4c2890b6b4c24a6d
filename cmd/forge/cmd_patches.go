package main

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-version"
	"github.com/spf13/cobra"

	"github.com/ochairo/forge/internal/domain-adapters/gateways"
	"github.com/ochairo/forge/internal/domain/entities"
	"github.com/ochairo/forge/internal/domain/interfaces"
	gatewayifaces "github.com/ochairo/forge/internal/domain/interfaces/gateways"
	"github.com/ochairo/forge/internal/external-adapters/yaml"
)

// Files under the patches directory that count as patches for orphan detection
const patchGlob = "**/*.{patch,diff}"

func newPatchesCmd(global *globalOptions) *cobra.Command {
	flags := &configFlags{}

	cmd := &cobra.Command{
		Use:   "patches",
		Short: "Inspect and check the patch manifest",
	}
	flags.registerPatchFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List manifest revisions in version order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				manifest, _, err := loadManifest(cmd, global, flags)
				if err != nil {
					return err
				}
				return listPatches(cmd.OutOrStdout(), manifest)
			},
		},
		&cobra.Command{
			Use:   "show <revision>",
			Short: "Print the ordered patch list for a revision",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				manifest, _, err := loadManifest(cmd, global, flags)
				if err != nil {
					return err
				}
				return showPatches(cmd.OutOrStdout(), manifest, args[0])
			},
		},
		&cobra.Command{
			Use:   "verify",
			Short: "Check that every referenced patch exists and is signed",
			Long: `Check that every patch referenced by the manifest exists under the patches
directory. When a keyring is configured each patch must also carry a valid
detached signature (<patch>.asc or <patch>.sig). Patch files that no revision
references are reported but do not fail the check.`,
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				manifest, cfg, err := loadManifest(cmd, global, flags)
				if err != nil {
					return err
				}
				logger := global.newLogger(cmd.ErrOrStderr())
				return verifyPatches(cmd.OutOrStdout(), manifest, cfg, logger)
			},
		},
	)

	return cmd
}

func loadManifest(cmd *cobra.Command, global *globalOptions, flags *configFlags) (*entities.PatchManifest, entities.BuildConfig, error) {
	cfg, err := loadBuildConfig(cmd, global, flags)
	if err != nil {
		return nil, cfg, err
	}
	repo := yaml.NewManifestRepository(cfg.ManifestPath)
	global.newLogger(cmd.ErrOrStderr()).Info("loading patch manifest", interfaces.F("path", repo.Path()))
	manifest, err := repo.GetManifest(cmd.Context())
	if err != nil {
		return nil, cfg, err
	}
	return manifest, cfg, nil
}

// sortRevisions orders revisions by semantic version. Revisions that do not
// parse as versions (branches, commit hashes) follow in lexical order.
func sortRevisions(revisions []string) []string {
	sorted := append([]string(nil), revisions...)
	parsed := make(map[string]*version.Version, len(sorted))
	for _, rev := range sorted {
		if v, err := version.NewVersion(rev); err == nil {
			parsed[rev] = v
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		vi, iok := parsed[sorted[i]]
		vj, jok := parsed[sorted[j]]
		switch {
		case iok && jok:
			if !vi.Equal(vj) {
				return vi.LessThan(vj)
			}
			return sorted[i] < sorted[j]
		case iok != jok:
			return iok
		default:
			return sorted[i] < sorted[j]
		}
	})
	return sorted
}

func listPatches(w io.Writer, manifest *entities.PatchManifest) error {
	revisions := sortRevisions(manifest.Revisions())
	fmt.Fprintf(w, "Patched revisions (%d total):\n\n", len(revisions))
	for _, rev := range revisions {
		patches, _ := manifest.Patches(rev)
		fmt.Fprintf(w, "  %-20s %d patch(es)\n", rev, len(patches))
	}
	return nil
}

func showPatches(w io.Writer, manifest *entities.PatchManifest, revision string) error {
	patches, ok := manifest.Patches(revision)
	if !ok {
		return fmt.Errorf("revision %q not found in patch manifest", revision)
	}
	if len(patches) == 0 {
		fmt.Fprintf(w, "%s: no patches\n", revision)
		return nil
	}
	fmt.Fprintf(w, "%s:\n", revision)
	for i, p := range patches {
		fmt.Fprintf(w, "  %d. %s\n", i+1, p)
	}
	return nil
}

func verifyPatches(w io.Writer, manifest *entities.PatchManifest, cfg entities.BuildConfig, logger interfaces.Logger) error {
	var verifier gatewayifaces.SignatureVerifier
	if cfg.Keyring != "" {
		v, err := gateways.NewGPGVerifier(cfg.Keyring)
		if err != nil {
			return err
		}
		verifier = v
	}

	referenced := make(map[string]bool)
	failed := 0
	checked := 0
	for _, rev := range sortRevisions(manifest.Revisions()) {
		patches, _ := manifest.Patches(rev)
		for _, name := range patches {
			key := path.Clean(filepath.ToSlash(name))
			if referenced[key] {
				continue
			}
			referenced[key] = true
			checked++

			if err := checkPatch(filepath.Join(cfg.PatchesDir, filepath.FromSlash(name)), verifier); err != nil {
				fmt.Fprintf(w, "FAIL  %s (%s): %v\n", name, rev, err)
				failed++
				continue
			}
			fmt.Fprintf(w, "ok    %s\n", name)
		}
	}

	orphans, err := findOrphans(cfg.PatchesDir, referenced)
	if err != nil {
		return err
	}
	for _, orphan := range orphans {
		logger.Warn("patch not referenced by any revision", interfaces.F("patch", orphan))
	}

	fmt.Fprintf(w, "\n%d patch(es) checked, %d failed, %d unreferenced\n", checked, failed, len(orphans))
	if failed > 0 {
		return fmt.Errorf("%d patch(es) failed verification", failed)
	}
	return nil
}

func checkPatch(patchPath string, verifier gatewayifaces.SignatureVerifier) error {
	info, err := os.Stat(patchPath)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", patchPath)
	}
	if verifier == nil {
		return nil
	}
	sigPath, err := gateways.FindSignature(patchPath)
	if err != nil {
		return err
	}
	return verifier.VerifyDetachedSignature(patchPath, sigPath)
}

// findOrphans lists patch files under dir that no manifest entry references
func findOrphans(dir string, referenced map[string]bool) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	matches, err := doublestar.Glob(os.DirFS(dir), patchGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	var orphans []string
	for _, match := range matches {
		if !referenced[match] {
			orphans = append(orphans, match)
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}
