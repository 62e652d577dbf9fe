// Package steps implements the named installation steps.
//
// Each Step performs one unit of host setup and reports an Outcome or an
// error coded with its class (FILESYSTEM, DEPENDENCY or PRIVILEGE). Steps
// share a Session holding the configuration, resolved paths, filesystem,
// command runner and the state earlier steps hand to later ones: the
// loaded manifest and the activated environment.
//
// The default plan, in order:
//
//	add-group             usermod -a -G dialout <user>
//	copy-app              copy ./PIMP to ~/PIMP
//	system-package        ensure python3-venv is installed
//	validate-manifest     load and check the requirements
//	create-venv           python3 -m venv ~/PIMP/venv
//	activate-venv         VIRTUAL_ENV and PATH for the following steps
//	upgrade-pip           python -m pip install --upgrade pip
//	install-requirements  python -m pip install <requirements>
//	deactivate-venv       restore the previous environment
//	mark-launcher         chmod +x ~/PIMP/pimp.sh
//	register-alias        alias pimp='~/PIMP/pimp.sh' in the alias file
//	reload-shell          check the shell loads the alias
//	verify                pip check and an import probe
//
// Steps never decide whether the run continues; the installer applies the
// failure policy.
package steps
