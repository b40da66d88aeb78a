// Package passhash provides salted one-way password hashing.
//
// Two encodings are supported:
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>   (PHC string, default)
//	$2a$10$<salt+hash>                               (bcrypt)
//
// Verify recognises both by prefix, so a user file may mix them and the
// configured algorithm only decides how new hashes are written.
package passhash
