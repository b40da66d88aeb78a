// Package userfile persists the user directory as a flat text file.
//
// Format:
//
//	# comment
//	root=$argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
//	alice=$2a$10$<bcrypt>
//
// One name=hash record per line, split at the first '='. Blank lines and
// lines starting with '#' are ignored, and a trailing '\r' is tolerated.
// Every save rewrites the whole file atomically (temp file, fsync, rename).
package userfile
