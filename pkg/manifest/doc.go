// Package manifest reads and validates the list of Python packages
// installed into the application's environment.
//
// A manifest comes from a pip requirements file, a TOML or YAML document,
// or the [[manifest.packages]] entries of the installer configuration:
//
//	# requirements.txt
//	--extra-index-url https://example.org/simple
//	PyQt6>=6.5
//	pyserial[cp2110]==3.5 ; sys_platform == "linux"
//
//	# manifest.toml
//	index_url = "https://pypi.org/simple"
//	[[packages]]
//	name = "numpy"
//	version = ">=1.24,<3"
//
// Parsing only checks structure. Validate checks names, version
// specifiers and duplicates and reports every problem at once, so the
// installer can reject a bad manifest before creating the environment.
package manifest
