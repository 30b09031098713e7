package predicates

import (
	"regexp"
	"strings"
)

// CommandPredicate decides whether a handler applies to the given command.
// The command is always the lowercased input text.
type CommandPredicate func(command string) bool

func All(predicates ...CommandPredicate) CommandPredicate {
	return func(command string) bool {
		for _, p := range predicates {
			if !p(command) {
				return false
			}
		}

		return true
	}
}

func Any(predicates ...CommandPredicate) CommandPredicate {
	return func(command string) bool {
		for _, p := range predicates {
			if p(command) {
				return true
			}
		}

		return false
	}
}

// ContainsAny matches if the command contains any of the given words as a
// plain substring.
func ContainsAny(words ...string) CommandPredicate {
	return func(command string) bool {
		for _, word := range words {
			if strings.Contains(command, word) {
				return true
			}
		}

		return false
	}
}

func Matching(r *regexp.Regexp) CommandPredicate {
	return func(command string) bool {
		return r.MatchString(command)
	}
}
