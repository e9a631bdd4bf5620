// Package build drives the external firmware toolchain and publishes the
// resulting Intel HEX image to the well-known image directory.
package build

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/probectl/internal/tools"
)

const (
	DefaultBootstrapScript = "./script/bootstrap"
	DefaultMakefile        = "examples/Makefile-nrf52840"
	DefaultHexSource       = "output/nrf52840/bin/ot-ncp-ftd.hex"
	DefaultImageName       = "ot-ncp-ftd.hex"

	datestampLayout = "2006-01-02"
)

// Builder compiles the firmware tree and publishes the hex artifact under
// both a stable and a date-stamped name.
type Builder struct {
	RepoPath  string
	ImageDir  string
	ImageName string
	Bootstrap string
	Makefile  string
	HexSource string
	Runner    tools.CommandRunner
	Now       func() time.Time
}

// Build runs bootstrap and make in the firmware tree, then publishes the
// produced hex image. Returns the stable published path.
func (b *Builder) Build() (string, error) {
	if strings.TrimSpace(b.RepoPath) == "" {
		return "", fmt.Errorf("build: firmware repo path is required")
	}

	steps := [][]string{
		{b.bootstrap()},
		{"make", "-f", b.makefile()},
	}
	for _, step := range steps {
		// Both steps use paths relative to the firmware tree.
		res, err := b.runner().RunIn(b.RepoPath, step[0], step[1:]...)
		if err != nil {
			return "", fmt.Errorf("build: %s: %w\n%s", strings.Join(step, " "), err, res.Combined())
		}
		log.Debug().Strs("cmd", step).Msg("build step done")
	}

	return b.publish()
}

// Publish copies an already-built hex image without rebuilding.
func (b *Builder) Publish() (string, error) {
	return b.publish()
}

func (b *Builder) publish() (string, error) {
	src := b.hexSource()
	if !filepath.IsAbs(src) {
		src = filepath.Join(b.RepoPath, src)
	}

	if err := os.MkdirAll(b.ImageDir, 0o755); err != nil {
		return "", fmt.Errorf("build: create image dir: %w", err)
	}

	stable := filepath.Join(b.ImageDir, b.imageName())
	dated := filepath.Join(b.ImageDir, b.DatedImageName(b.now()))

	for _, dst := range []string{stable, dated} {
		if err := copyFile(dst, src); err != nil {
			return "", err
		}
	}

	log.Info().Str("stable", stable).Str("dated", dated).Msg("published firmware image")
	return stable, nil
}

// DatedImageName derives the date-stamped artifact name from the stable one.
func (b *Builder) DatedImageName(now time.Time) string {
	name := b.imageName()
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + "-" + now.Format(datestampLayout) + ext
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("build: open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("build: create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("build: copy to %s: %w", dst, err)
	}
	return out.Close()
}

func (b *Builder) bootstrap() string {
	if b.Bootstrap != "" {
		return b.Bootstrap
	}
	return DefaultBootstrapScript
}

func (b *Builder) makefile() string {
	if b.Makefile != "" {
		return b.Makefile
	}
	return DefaultMakefile
}

func (b *Builder) hexSource() string {
	if b.HexSource != "" {
		return b.HexSource
	}
	return DefaultHexSource
}

func (b *Builder) imageName() string {
	if b.ImageName != "" {
		return b.ImageName
	}
	return DefaultImageName
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Builder) runner() tools.CommandRunner {
	if b.Runner != nil {
		return b.Runner
	}
	return tools.ExecRunner{}
}
