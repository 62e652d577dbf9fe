package steps

import (
	"context"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/sysdeps"
)

type addGroup struct{}

func (addGroup) Name() string            { return AddGroup }
func (addGroup) Class() errors.ErrorCode { return errors.ErrPrivilege }

func (addGroup) Describe(s *Session) string {
	if !s.Config.Group.Enabled {
		return "group membership disabled"
	}
	cmd := s.Elevation().Wrap(sysdeps.AddToGroupCommand(s.Host.User, s.Config.Group.Name))
	return "add " + s.Host.User + " to group " + s.Config.Group.Name + ": " + cmd.String()
}

func (addGroup) Run(ctx context.Context, s *Session) (Outcome, error) {
	group, user := s.Config.Group.Name, s.Host.User
	if !s.Config.Group.Enabled {
		return Skip("group membership disabled"), nil
	}

	exists, err := s.Groups.Exists(group)
	if err != nil {
		return Outcome{}, err
	}
	if !exists {
		return Outcome{}, errors.Newf(errors.ErrNotFound, "group %s does not exist on this host", group)
	}

	member, err := s.Groups.IsMember(user, group)
	if err != nil {
		return Outcome{}, err
	}
	if member {
		return Skip("%s is already in %s", user, group), nil
	}

	elevation := s.Elevation()
	if err := elevation.Check(s.Runner); err != nil {
		return Outcome{}, err
	}

	cmd := elevation.Wrap(sysdeps.AddToGroupCommand(user, group))
	if _, err := s.Runner.Run(ctx, cmd); err != nil {
		return Outcome{}, sysdeps.ClassifyPrivileged(err, errors.ErrPrivilege,
			"failed to add "+user+" to "+group)
	}

	s.Logger.Info().Str("user", user).Str("group", group).Msg("Added user to group")
	return Done("added %s to %s; log out and back in for it to take effect", user, group), nil
}
