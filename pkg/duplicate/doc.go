/*
Package duplicate implements the copies batch loop.

	+-------------+
	|  Duplicate  |
	| (batch loop)|
	+------+------+
	       |
	+------+------+        +-------------+
	| processFile | -----> |   imaging   |
	| (per entry) |        | (CMYK JPEG) |
	+------+------+        +-------------+
	       |
	+------+------+
	|   fsutil    |
	| (copy/write)|
	+-------------+

🔄 Flow:
1. Check the source is a directory and list it once, without recursion
2. Create the target (and missing parents)
3. For each regular file, write N duplicates named <base>_copy<i><ext>
4. With conversion on, image files become CMYK JPEGs named <base>_copy<i>.jpg;
   a file that cannot be converted is copied byte for byte instead
5. Report one notice per file-level action

⚡ Failure model:
- ErrInvalidSource and ErrCreateTarget stop the run before any duplicate is written
- Conversion failures are recovered per file and never stop the run
- Copy failures (ErrCopy) stop the run, unless KeepGoing is set, in which
  case they are reported and joined into the returned error

🔍 Example:

	report, err := duplicate.Duplicate(ctx, duplicate.Options{
		Source:  "in",
		Target:  "out",
		Copies:  2,
		Convert: true,
	})
*/
package duplicate
