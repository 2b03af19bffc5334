package cli

import (
	"fmt"

	"github.com/glorpus-work/formula/pkg/cache"
	"github.com/glorpus-work/formula/pkg/config"
	"github.com/glorpus-work/formula/pkg/errors"
	"github.com/glorpus-work/formula/pkg/formula"
	"github.com/glorpus-work/formula/pkg/hooks"
	"github.com/glorpus-work/formula/pkg/installer"
	"github.com/glorpus-work/formula/pkg/release"
	"github.com/glorpus-work/formula/pkg/signature"
	"github.com/spf13/cobra"
)

type installOptions struct {
	formulaPath string
	osOverride  string
	binDir      string
	keyring     string
}

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	var opts installOptions

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the binary of a formula",
		Long: `Resolve the artifact for this platform, download it once, verify its
SHA-256 checksum and place the binary into the binary directory.
Any failure aborts the install.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.formulaPath, "formula", "f", "", "Formula descriptor (defaults to the built-in release)")
	cmd.Flags().StringVar(&opts.osOverride, "os", "", "Install the artifact of this operating system instead of the host's")
	cmd.Flags().StringVar(&opts.binDir, "bin-dir", "", "Binary directory (defaults to config)")
	cmd.Flags().StringVar(&opts.keyring, "keyring", "", "OpenPGP public keyring for signature checks (defaults to config)")

	return cmd
}

func runInstall(cmd *cobra.Command, opts installOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := loadFormula(opts.formulaPath)
	if err != nil {
		return err
	}
	if opts.formulaPath == "" && !release.Published(f) {
		return fmt.Errorf("%w: built-in release %s has no published checksums; pass --formula or regenerate dist/pacaptr.yaml",
			errors.ErrInvalidFormula, f.Release.Version())
	}

	inst, err := newInstaller(cfg, f, opts)
	if err != nil {
		return err
	}

	family := selectPlatform(cmd.Context(), cfg, opts.osOverride)
	res, err := inst.Install(cmd.Context(), f.Release, family)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Installed %s %s (%s) to %s\n",
		f.Release.Binary(), res.Version, res.Platform, res.Path)
	return nil
}

func newInstaller(cfg *config.Config, f *formula.Formula, opts installOptions) (*installer.Installer, error) {
	binDir := opts.binDir
	if binDir == "" {
		binDir = cfg.Settings.BinDir
	}
	dir, err := cacheDir(cfg, cache.ArtifactsDir)
	if err != nil {
		return nil, err
	}

	inst := &installer.Installer{
		BinDir:   binDir,
		CacheDir: dir,
		Policy:   cfg.Settings.UnsupportedPlatform,
		DL:       newDownloadManager(cfg),
	}

	keyring := opts.keyring
	if keyring == "" {
		keyring = cfg.Settings.Keyring
	}
	if keyring != "" {
		v, err := signature.LoadVerifier(keyring)
		if err != nil {
			return nil, err
		}
		inst.Verifier = v
	}

	if f.PostInstall != "" {
		exec := hooks.NewTengoExecutor()
		exec.AddScript(hooks.PostInstall, f.PostInstall)
		inst.Hooks = exec
	}
	return inst, nil
}
