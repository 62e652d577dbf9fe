package sysdeps

import (
	"os/user"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/executor"
)

// GroupDB answers group membership questions.
type GroupDB interface {
	Exists(group string) (bool, error)
	IsMember(username, group string) (bool, error)
}

// OSGroups reads the system user and group databases.
type OSGroups struct{}

// Exists reports whether the group is defined on the host.
func (OSGroups) Exists(group string) (bool, error) {
	if _, err := user.LookupGroup(group); err != nil {
		if _, ok := err.(user.UnknownGroupError); ok {
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrInternal, "failed to look up group %s", group)
	}
	return true, nil
}

// IsMember reports whether username belongs to group, as primary or
// supplementary group. Membership granted during this session only shows
// up in the database, not in the running process's credentials.
func (OSGroups) IsMember(username, group string) (bool, error) {
	g, err := user.LookupGroup(group)
	if err != nil {
		if _, ok := err.(user.UnknownGroupError); ok {
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrInternal, "failed to look up group %s", group)
	}

	u, err := user.Lookup(username)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrNotFound, "failed to look up user %s", username)
	}

	ids, err := u.GroupIds()
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrInternal, "failed to list groups of %s", username)
	}
	for _, id := range ids {
		if id == g.Gid {
			return true, nil
		}
	}
	return false, nil
}

// AddToGroupCommand returns the unelevated command adding username to group.
func AddToGroupCommand(username, group string) executor.Command {
	return executor.Command{Name: "usermod", Args: []string{"-a", "-G", group, username}}
}
