/*
Package config holds the configuration file definition.

mep2d reads a single static configuration file, mep2d.conf. It is never
reloaded during the lifetime of a running process; after changes, mep2d
must be restarted.

Below is an "empty" config file, generated from the config file
definition in the source code, along with comments explaining the
fields.

# sconf

The config file is in "sconf" format. Properties of sconf files:

  - Indentation with tabs only.
  - "#" as first non-whitespace character makes the line a comment. Lines
    with a value cannot also have a comment.
  - Values don't have syntax indicating their type. For example, strings
    are not quoted/escaped and can never span multiple lines.
  - Fields that are optional can be left out completely.

See https://pkg.go.dev/github.com/mjl-/sconf for details.

# mep2d.conf

	# NOTE: This config file is in 'sconf' format. Indent with tabs. Comments must be
	# on their own line, they don't end a line. Do not escape or quote strings.
	# Details: https://pkg.go.dev/github.com/mjl-/sconf.

	# Directory where all data is stored: the message catalogue, content arena,
	# and its tmp staging directory. If this is a relative path, it is relative to
	# the directory of mep2d.conf.
	DataDir:

	# Default log level, one of: error, info, debug, trace, traceauth, tracedata.
	# Trace logs the raw PDU line transcript; tracedata additionally logs decoded
	# information-line content.
	LogLevel:

	# Overrides of log level per package (e.g. mep2, mep2server, store). (optional)
	PackageLogLevels:
		x:

	# The single MEP2 listener this process serves.
	Listen:

		# Address to listen on, e.g. :6060 or 127.0.0.1:6060.
		Addr:

		# Maximum total decoded size in bytes of one PDU's information lines.
		# Default 20MB. The listener does not enforce this value. (optional)
		MaxMsgSize: 0

		# Number of consecutive Checksum_Error results tolerated before the
		# connection is dropped. Default 5. (optional)
		ChecksumErrorLimit: 0

		# Idle read timeout per line. Zero, the default, applies no read timeout.
		# (optional)
		ReadTimeout: 0s

	# (optional)
	Postmaster:

		# Folder catalogue entries with no resolvable recipient are filed under.
		# Default: Inbox. (optional)
		Folder:
*/
package config
