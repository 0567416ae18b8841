package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/router.txt
	routerRaw string

	//go:embed template/extract.txt
	extractRaw string

	//go:embed template/summarize.txt
	summarizeRaw string
)

// Set holds loaded prompt content.
type Set struct {
	Router    string
	Extract   string
	Summarize string
}

// Load returns the embedded prompt set with surrounding whitespace trimmed.
func Load() Set {
	return Set{
		Router:    strings.TrimSpace(routerRaw),
		Extract:   strings.TrimSpace(extractRaw),
		Summarize: strings.TrimSpace(summarizeRaw),
	}
}
