package steps

import (
	"context"
	"fmt"

	"github.com/pimp-project/pimp-install/pkg/apptree"
	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
)

type copyApp struct{}

func (copyApp) Name() string            { return CopyApp }
func (copyApp) Class() errors.ErrorCode { return errors.ErrFilesystem }

func (copyApp) Describe(s *Session) string {
	return fmt.Sprintf("copy %s to %s", s.Paths.SourceDir(), s.Paths.TargetDir())
}

func (copyApp) Run(ctx context.Context, s *Session) (Outcome, error) {
	src, dst := s.Paths.SourceDir(), s.Paths.TargetDir()

	if filesystem.SameOrInside(src, dst) && filesystem.SameOrInside(dst, src) {
		return Skip("%s is already the install location", dst), nil
	}

	layout := apptree.Layout{
		Entrypoint:   s.Config.App.Entrypoint,
		DefaultsFile: s.Config.App.DefaultsFile,
		Exclude:      s.Config.Copy.Exclude,
	}
	report, err := apptree.Check(s.FS, src, layout)
	if err != nil {
		return Outcome{}, err
	}

	stats, err := filesystem.CopyTree(s.FS, src, dst, s.Config.Copy.Exclude)
	if err != nil {
		return Outcome{}, err
	}

	s.Logger.Info().
		Str("source", src).
		Str("target", dst).
		Int("files", stats.Files).
		Int("forms", len(report.UIFiles)).
		Msg("Application copied")
	return Done("copied %d files (%d skipped) to %s", stats.Files, len(stats.Skipped), dst), nil
}
