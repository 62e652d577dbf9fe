package steps

import (
	"context"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/manifest"
)

type validateManifest struct{}

func (validateManifest) Name() string            { return ValidateManifest }
func (validateManifest) Class() errors.ErrorCode { return errors.ErrDependency }

func (validateManifest) Describe(s *Session) string {
	if path := s.Paths.ManifestPath(); path != "" {
		return "load and validate " + path
	}
	return "validate the packages listed in the configuration"
}

func (validateManifest) Run(ctx context.Context, s *Session) (Outcome, error) {
	s.Manifest = nil

	m, err := manifest.Resolve(s.FS, s.Config, s.Paths.ManifestPath())
	if err != nil {
		return Outcome{}, err
	}
	if err := m.Validate(); err != nil {
		return Outcome{}, err
	}

	s.Manifest = m
	s.Logger.Debug().Strs("requirements", m.Names()).Str("source", m.Source).Msg("Manifest validated")
	return Done("%d requirements from %s", m.Len(), m.Source), nil
}
