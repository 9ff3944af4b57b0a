package usecase

import (
	"regexp"
	"strings"
)

const uuidPattern = `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`

var (
	labeledFranchiseRe = regexp.MustCompile(`(?i)franchise\s*id\s*[:\-]?\s*(` + uuidPattern + `)`)
	bareUUIDRe         = regexp.MustCompile(`\b` + uuidPattern + `\b`)
	locationRe         = regexp.MustCompile(`(?i)location:\s*`)
)

// ExtractFranchiseAndLocation pulls the franchise id and optional location
// out of a patient's first message. The labeled "Franchise ID: <uuid>" form
// wins over any other UUID in the body. The location runs from "Location:"
// to the first comma, period or newline.
func ExtractFranchiseAndLocation(body string) (franchiseID, location string) {
	if m := labeledFranchiseRe.FindStringSubmatch(body); m != nil {
		franchiseID = strings.ToLower(m[1])
	} else if ids := ExtractAllUUIDs(body); len(ids) > 0 {
		franchiseID = ids[0]
	}

	if loc := locationRe.FindStringIndex(body); loc != nil {
		rest := body[loc[1]:]
		if end := strings.IndexAny(rest, ",.\n"); end >= 0 {
			rest = rest[:end]
		}
		location = strings.TrimSpace(rest)
	}
	return franchiseID, location
}

// ExtractAllUUIDs returns every standalone UUID in body, lowercased and
// deduplicated, in first-seen order.
func ExtractAllUUIDs(body string) []string {
	matches := bareUUIDRe.FindAllString(body, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		id := strings.ToLower(m)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
