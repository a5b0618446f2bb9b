package history

import (
	"strconv"
	"strings"
)

// StarterGroup is the group id used for the starter group, which has no
// number on the league website.
const StarterGroup = 9

const (
	tokenNone         = "-"
	tokenDisqualified = "Disqualifiziert"
	tokenStarter      = "Starter"
)

// Row is one result row of a season table: the label cell and the result
// cell. Link is the href found in the label cell, if any.
type Row struct {
	Label  string `json:"label"`
	Result string `json:"result"`
	Link   string `json:"link,omitempty"`
}

// SeasonBlock holds the rows of one season in page order: qualifier, group
// stage, playoffs.
type SeasonBlock struct {
	Rows []Row `json:"rows"`
}

const minRows = 3

type Snapshot struct {
	Qualifier   *int  `json:"qualifier"`
	Group       *int  `json:"group"`
	GroupResult *int  `json:"group_result"`
	Playoff     *int  `json:"playoff"`
	WonPlayoff  *bool `json:"won_playoff"`
}

// Find returns the snapshot of the first season whose group row links to
// the team slug, or nil.
func Find(blocks []SeasonBlock, slug string) *Snapshot {
	for _, block := range blocks {
		if len(block.Rows) < minRows {
			continue
		}
		if ref := block.Rows[1].Link; ref != "" && strings.Contains(ref, slug) {
			return Reconstruct(block)
		}
	}
	return nil
}

// Reconstruct reads a season block. Blocks with fewer than three rows give
// nil.
func Reconstruct(block SeasonBlock) *Snapshot {
	if len(block.Rows) < minRows {
		return nil
	}
	qualifier, group, playoff := block.Rows[0], block.Rows[1], block.Rows[2]
	s := &Snapshot{}

	if !isNone(qualifier.Result) {
		s.Qualifier = atoi(between(qualifier.Result, "(", "/"))
	}

	groupName := strings.TrimSpace(group.Label)
	switch {
	case strings.Contains(groupName, tokenStarter):
		starter := StarterGroup
		s.Group = &starter
	case groupName != tokenNone:
		s.Group = atoi(between(groupName, "Gruppe ", "."))
	}

	if !isNone(group.Result) {
		if s.Group != nil && *s.Group == StarterGroup {
			s.GroupResult = atoi(between(group.Result, "(", "/"))
		} else {
			s.GroupResult = atoi(between(group.Result, "Rang: ", "."))
		}
	}

	playoffLabel := strings.TrimSpace(playoff.Label)
	if playoffLabel == tokenNone {
		return s
	}
	label := between(playoffLabel, "Playoffs  ", ".")
	s.Playoff = atoi(label)

	// The page gives no explicit win flag; the last character of the result
	// is compared with the playoff label.
	if result := playoff.Result; result != "" {
		won := result[len(result)-1:] == label
		s.WonPlayoff = &won
	} else {
		won := false
		s.WonPlayoff = &won
	}
	return s
}

func isNone(s string) bool {
	s = strings.TrimSpace(s)
	return s == tokenNone || s == tokenDisqualified
}

// between returns the text between the first start marker and the next end
// marker. A missing start marker gives ""; a missing end marker gives the
// rest of the string.
func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	rest := s[i+len(start):]
	if j := strings.Index(rest, end); j >= 0 {
		return rest[:j]
	}
	return rest
}

func atoi(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}
