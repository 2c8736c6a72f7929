/*
Package config loads the optional defaults file for a copies run.

🎯 Purpose:
- Supplies defaults for flags a user does not want to repeat
- Rejects unknown fields so typos fail loudly
- Validates values before the duplicator sees them

🔄 Formats (chosen by file extension):
- .yaml / .yml
- .json
- .hcl (the `env` object exposes environment variables)

🔍 Example (.copies.yaml):

	num_copies: 3
	convert: true
	quality: 90
	ignore:
	  - "*.tmp"
	  - ".DS_Store"
	manifest: copies.lock.yaml

🔍 Example (.copies.hcl):

	num_copies = 2
	convert    = true
	manifest   = "${env.HOME}/copies.json"

Command-line flags that were set explicitly take precedence over the file.
*/
package config
