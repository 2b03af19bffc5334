// Package installer runs the linear install pipeline of a formula:
// resolve the artifact for a platform, fetch and verify it, then place the
// binary into the binary directory.
package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/formula/internal/logger"
	"github.com/glorpus-work/formula/pkg/archive"
	"github.com/glorpus-work/formula/pkg/download"
	"github.com/glorpus-work/formula/pkg/errors"
	"github.com/glorpus-work/formula/pkg/fsutil"
	"github.com/glorpus-work/formula/pkg/hooks"
	"github.com/glorpus-work/formula/pkg/model"
	"github.com/glorpus-work/formula/pkg/platform"
	"github.com/glorpus-work/formula/pkg/signature"
)

// Installer installs the binary of a release. DL and CacheDir are required;
// Verifier and Hooks are optional.
type Installer struct {
	BinDir   string
	CacheDir string
	Policy   model.UnsupportedPolicy
	DL       download.Manager
	Archive  *archive.Manager
	Verifier *signature.Verifier
	Hooks    hooks.Executor
}

// Result describes a completed install.
type Result struct {
	Platform platform.Family
	Artifact model.Artifact
	Version  string
	Path     string
}

// Resolve selects the artifact of release for the given platform family.
func (i *Installer) Resolve(release *model.Release, family platform.Family) (model.Artifact, error) {
	policy := i.Policy
	if policy == "" {
		policy = model.PolicyFallback
	}
	return release.Resolve(family, policy)
}

// FetchAndVerify downloads the artifact once and returns its content after the
// SHA-256 digest (and, when a keyring is configured, the detached signature)
// has been checked.
func (i *Installer) FetchAndVerify(ctx context.Context, artifact model.Artifact) ([]byte, error) {
	if i.DL == nil {
		return nil, fmt.Errorf("no download manager configured: %w", errors.ErrFetch)
	}
	u := artifact.ParsedURL()
	if u == nil {
		return nil, fmt.Errorf("invalid artifact url %q: %w", artifact.URL(), errors.ErrFetch)
	}

	item := download.Item{
		ID:       artifact.Filename(),
		URL:      u,
		Checksum: artifact.Checksum(),
		Filename: artifact.Filename(),
	}
	localPath, err := i.DL.Fetch(ctx, item, download.Options{Dir: i.CacheDir})
	if err != nil {
		return nil, classifyFetchError(err)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, errors.Stage(errors.ErrFetch, errors.Wrapf(err, "failed to read %s", localPath))
	}
	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); !artifact.MatchesChecksum(got) {
		return nil, fmt.Errorf("%w: checksum mismatch for %s: expected %s, got %s",
			errors.ErrIntegrity, artifact.URL(), artifact.Checksum(), got)
	}
	logger.Debug("checksum verified", logger.Fields{"url": artifact.URL(), "sha256": artifact.Checksum()})

	if err := i.verifySignature(ctx, artifact, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (i *Installer) verifySignature(ctx context.Context, artifact model.Artifact, data []byte) error {
	switch {
	case i.Verifier == nil && artifact.Signed():
		logger.Debug("no keyring configured, skipping signature", logger.Fields{"signature_url": artifact.SignatureURL()})
		return nil
	case i.Verifier == nil:
		return nil
	case !artifact.Signed():
		logger.Warn("keyring configured but artifact declares no signature", logger.Fields{"url": artifact.URL()})
		return nil
	}

	sigURL, err := url.Parse(artifact.SignatureURL())
	if err != nil {
		return errors.Stage(errors.ErrFetch, err)
	}
	item := download.Item{
		ID:       artifact.Filename() + ".sig",
		URL:      sigURL,
		Filename: artifact.Filename() + ".sig",
	}
	sigPath, err := i.DL.Fetch(ctx, item, download.Options{Dir: i.CacheDir})
	if err != nil {
		return classifyFetchError(err)
	}
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		return errors.Stage(errors.ErrFetch, errors.Wrapf(err, "failed to read %s", sigPath))
	}
	if err := i.Verifier.Verify(data, sig); err != nil {
		return err
	}
	logger.Debug("signature verified", logger.Fields{"signature_url": artifact.SignatureURL()})
	return nil
}

// InstallBinary writes data as an executable named name into the binary
// directory, replacing any previous file.
func (i *Installer) InstallBinary(data []byte, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: invalid binary name %q", errors.ErrInstall, name)
	}
	if i.BinDir == "" {
		return "", fmt.Errorf("%w: no binary directory configured", errors.ErrInstall)
	}

	target := filepath.Join(i.BinDir, name)
	if err := fsutil.WriteFileAtomic(target, data, fsutil.FileModeExec); err != nil {
		return "", errors.Stage(errors.ErrInstall, err)
	}
	logger.Debug("binary written", logger.Fields{"path": target, "bytes": len(data)})
	return target, nil
}

// Install runs resolve, fetch and verify, extract, install and the optional
// post-install hook for release on family. Every failure is terminal.
func (i *Installer) Install(ctx context.Context, release *model.Release, family platform.Family) (*Result, error) {
	artifact, err := i.Resolve(release, family)
	if err != nil {
		return nil, err
	}
	logger.Info("Resolved artifact", logger.Fields{"platform": family.String(), "url": artifact.URL()})

	data, err := i.FetchAndVerify(ctx, artifact)
	if err != nil {
		return nil, err
	}

	am := i.Archive
	if am == nil {
		am = archive.NewManager()
	}
	bin, err := am.ExtractBinary(ctx, artifact.Filename(), data, release.Binary())
	if err != nil {
		return nil, errors.Stage(errors.ErrInstall, err)
	}

	path, err := i.InstallBinary(bin, release.Binary())
	if err != nil {
		return nil, err
	}

	if i.Hooks != nil && i.Hooks.HasScript(hooks.PostInstall) {
		hctx := hooks.HookContext{
			BinaryName: release.Binary(),
			BinaryPath: path,
			Version:    release.Version(),
			Platform:   family.String(),
		}
		if err := i.Hooks.Execute(hooks.PostInstall, hctx); err != nil {
			return nil, errors.Stage(errors.ErrInstall, err)
		}
	}

	logger.Success("Installed", logger.Fields{"binary": release.Binary(), "version": release.Version(), "path": path})
	return &Result{Platform: family, Artifact: artifact, Version: release.Version(), Path: path}, nil
}

// classifyFetchError keeps integrity failures from the downloader as such and
// reports everything else as a fetch failure.
func classifyFetchError(err error) error {
	if errors.Is(err, errors.ErrIntegrity) {
		return err
	}
	return errors.Stage(errors.ErrFetch, err)
}
