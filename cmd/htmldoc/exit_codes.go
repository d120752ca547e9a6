package main

// Exit codes for the htmldoc CLI.
const (
	ExitSuccess = 0 // Every requested format was produced
	ExitFailure = 1 // Nothing was produced, or usage/validation error
	ExitPartial = 2 // Some formats succeeded, others failed
)

// exitCodeFor maps conversion outcomes to an exit code.
func exitCodeFor(results []formatResult) int {
	if len(results) == 0 {
		return ExitFailure
	}
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
		}
	}
	switch {
	case failed == 0:
		return ExitSuccess
	case failed == len(results):
		return ExitFailure
	default:
		return ExitPartial
	}
}
