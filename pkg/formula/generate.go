package formula

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/glorpus-work/formula/internal/logger"
	"github.com/glorpus-work/formula/pkg/download"
	"github.com/glorpus-work/formula/pkg/errors"
	"github.com/glorpus-work/formula/pkg/model"
	"github.com/hashicorp/go-version"
)

// Defaults of the pacaptr release layout.
const (
	DefaultName         = "pacaptr"
	DefaultDesc         = "Pacman syntax wrapper for many package managers"
	DefaultHomepage     = "https://github.com/rami3l/pacaptr"
	DefaultMacArchive   = "pacaptr-macos-universal.tar.gz"
	DefaultLinuxArchive = "pacaptr-linux-amd64.tar.gz"
	checksumSuffix      = ".sha256"
)

var refPrefix = regexp.MustCompile(`refs/.*/`)

// GenerateOptions describes the release a formula is generated for.
type GenerateOptions struct {
	Tag          string // "v0.9.0" or a git ref such as "refs/tags/v0.9.0"
	Name         string
	Desc         string
	Homepage     string
	Binary       string
	MacArchive   string
	LinuxArchive string
	CacheDir     string // absolute directory for the downloaded checksum files
}

func (o *GenerateOptions) applyDefaults() {
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.Desc == "" {
		o.Desc = DefaultDesc
	}
	if o.Homepage == "" {
		o.Homepage = DefaultHomepage
	}
	if o.MacArchive == "" {
		o.MacArchive = DefaultMacArchive
	}
	if o.LinuxArchive == "" {
		o.LinuxArchive = DefaultLinuxArchive
	}
	o.Homepage = strings.TrimRight(o.Homepage, "/")
}

// ParseTag strips a "refs/*/" prefix from ref and returns the tag together with
// the version, which is the tag without its leading "v".
func ParseTag(ref string) (tag, ver string, err error) {
	tag = refPrefix.ReplaceAllString(strings.TrimSpace(ref), "")
	if tag == "" {
		return "", "", fmt.Errorf("%w: empty tag in %q", errors.ErrInvalidTag, ref)
	}
	ver = strings.TrimPrefix(tag, "v")
	if _, err := version.NewSemver(ver); err != nil {
		return "", "", fmt.Errorf("%w: %q: %w", errors.ErrInvalidTag, tag, err)
	}
	return tag, ver, nil
}

// ReleaseURL returns the download location of a release asset.
func ReleaseURL(homepage, tag, asset string) string {
	return fmt.Sprintf("%s/releases/download/%s/%s", strings.TrimRight(homepage, "/"), tag, asset)
}

// ParseChecksumFile returns the digest from the content of a ".sha256" file,
// which is its first whitespace-separated field.
func ParseChecksumFile(content string) (string, error) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: empty checksum file", errors.ErrInvalidChecksum)
	}
	return model.NormalizeChecksum(fields[0])
}

// Generator builds formulas for published releases.
type Generator struct {
	DL download.Manager
}

// Generate computes both artifact URLs for opts.Tag, fetches their published
// checksums in one batch and returns the resulting release.
func (g *Generator) Generate(ctx context.Context, opts GenerateOptions) (*model.Release, error) {
	if g.DL == nil {
		return nil, fmt.Errorf("no download manager configured: %w", errors.ErrFetch)
	}
	opts.applyDefaults()

	tag, ver, err := ParseTag(opts.Tag)
	if err != nil {
		return nil, err
	}
	urlMac := ReleaseURL(opts.Homepage, tag, opts.MacArchive)
	urlLinux := ReleaseURL(opts.Homepage, tag, opts.LinuxArchive)

	logger.Info("Getting checksums", logger.Fields{"tag": tag})
	sums, err := g.fetchChecksums(ctx, opts.CacheDir, []asset{
		{id: "macos", url: urlMac},
		{id: "linux", url: urlLinux},
	})
	if err != nil {
		return nil, err
	}

	mac, err := model.NewArtifact(urlMac, sums["macos"])
	if err != nil {
		return nil, err
	}
	linux, err := model.NewArtifact(urlLinux, sums["linux"])
	if err != nil {
		return nil, err
	}
	meta := model.Metadata{Name: opts.Name, Desc: opts.Desc, Homepage: opts.Homepage, Binary: opts.Binary}
	return model.NewRelease(meta, ver, mac, linux)
}

type asset struct {
	id  string
	url string
}

func (g *Generator) fetchChecksums(ctx context.Context, dir string, assets []asset) (map[string]string, error) {
	items := make([]download.Item, 0, len(assets))
	for _, a := range assets {
		u, err := url.Parse(a.url + checksumSuffix)
		if err != nil {
			return nil, errors.Stage(errors.ErrFetch, err)
		}
		items = append(items, download.Item{
			ID:       a.id,
			URL:      u,
			Filename: a.id + "-" + lastElem(u.Path),
		})
	}

	paths, err := g.DL.FetchAll(ctx, items, download.Options{Dir: dir, Concurrency: len(items)})
	if err != nil {
		return nil, errors.Stage(errors.ErrFetch, err)
	}

	sums := make(map[string]string, len(items))
	for _, item := range items {
		p, ok := paths[item.ID]
		if !ok {
			return nil, fmt.Errorf("%w: no checksum file downloaded for %s", errors.ErrFetch, item.URL)
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.Stage(errors.ErrFetch, err)
		}
		sum, err := ParseChecksumFile(string(content))
		if err != nil {
			return nil, errors.Wrapf(err, "checksum file %s", item.URL)
		}
		logger.Debug("checksum", logger.Fields{"asset": item.ID, "sha256": sum})
		sums[item.ID] = sum
	}
	return sums, nil
}

func lastElem(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
