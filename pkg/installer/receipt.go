package installer

import (
	"github.com/pimp-project/pimp-install/pkg/internal/hashutil"
	"github.com/pimp-project/pimp-install/pkg/receipt"
	"github.com/pimp-project/pimp-install/pkg/steps"
)

// NewReceipt converts a report into the persisted receipt.
func NewReceipt(r *Report, s *steps.Session, version string) *receipt.Receipt {
	p := s.Paths
	rec := &receipt.Receipt{
		RunID:      r.RunID,
		Version:    version,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Succeeded:  r.Succeeded(),
		Policy:     r.Policy,
		App: receipt.App{
			Name:     s.Config.App.Name,
			Source:   p.SourceDir(),
			Target:   p.TargetDir(),
			Venv:     p.VenvDir(),
			Launcher: p.LauncherPath(),
		},
		Shell: receipt.Shell{
			Kind:      string(p.ShellKind()),
			AliasName: s.Config.Shell.AliasName,
			AliasFile: p.AliasFile(),
			RCFile:    p.RCFile(),
		},
	}
	if path := p.ManifestPath(); path != "" {
		if sum, err := hashutil.FileChecksum(s.FS, path); err == nil {
			rec.App.Manifest = path
			rec.App.ManifestChecksum = sum
		}
	}
	if s.Manifest != nil {
		for _, req := range s.Manifest.Requirements {
			rec.Requirements = append(rec.Requirements, req.String())
		}
	}
	for _, res := range r.Results {
		step := receipt.Step{
			Name:    res.Name,
			Status:  string(res.Status),
			Message: res.Message,
		}
		if res.Err != nil {
			step.Error = res.Err.Error()
		}
		if res.Duration > 0 {
			step.Duration = res.Duration.String()
		}
		rec.Steps = append(rec.Steps, step)
	}
	return rec
}

// Record saves the receipt of a finished run. Dry runs leave no receipt.
func (i *Installer) Record(r *Report, version string) error {
	if r.DryRun {
		return nil
	}
	path := i.session.Paths.ReceiptPath()
	if err := receipt.Save(i.session.FS, path, NewReceipt(r, i.session, version)); err != nil {
		return err
	}
	i.logger.Debug().Str("path", path).Msg("Receipt saved")
	return nil
}
