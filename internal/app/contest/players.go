package contest

import (
	"regexp"
	"sort"
	"strings"

	"contest-arena/internal/store"
)

var externalIDPattern = regexp.MustCompile(`^[0-9]{1,20}$`)

// CanonicalExternalID validates an in-game id and strips leading zeros.
func CanonicalExternalID(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if !externalIDPattern.MatchString(v) {
		return "", false
	}
	v = strings.TrimLeft(v, "0")
	if v == "" {
		v = "0"
	}
	return v, true
}

func normalizePlayers(in []PlayerInput) ([]store.Player, error) {
	out := make([]store.Player, 0, len(in))
	for _, p := range in {
		name := strings.TrimSpace(p.DisplayName)
		id, ok := CanonicalExternalID(p.ExternalID)
		if name == "" || !ok {
			return nil, ErrInvalidRequest
		}
		out = append(out, store.Player{DisplayName: name, ExternalID: id})
	}
	return out, nil
}

func normalizeExternalIDs(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		id, ok := CanonicalExternalID(raw)
		if !ok {
			return nil, ErrInvalidRequest
		}
		out = append(out, id)
	}
	return out, nil
}

// repeatedIDs lists ids that appear more than once in players.
func repeatedIDs(players []store.Player) []string {
	seen := make(map[string]int, len(players))
	for _, p := range players {
		seen[p.ExternalID]++
	}
	out := []string{}
	for id, n := range seen {
		if n > 1 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
