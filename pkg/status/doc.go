/*
Package status tracks the duplicates a run produces.

	+-------------+        +-------------+
	| Duplicator  | -----> |   Tracker   |
	| (per file)  | Track  | (in memory) |
	+-------------+        +------+------+
	                              |
	                       +------+------+
	                       |  Manifest   |
	                       | (yaml/json) |
	                       +-------------+

🎯 Purpose:
- Records each duplicate written: source, target, kind, size, checksum
- Classifies every target as new, modified or unchanged against what was on
  disk before the write, so a rerun over unchanged input reports unchanged
- Writes the optional run manifest atomically

The tracker is only consulted when a manifest was requested; a run without
one never reads its own output back.
*/
package status
