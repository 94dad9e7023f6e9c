package database

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes s match literally inside a LIKE pattern that uses '\' as
// its escape character.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
