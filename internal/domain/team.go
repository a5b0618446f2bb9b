package domain

import (
	"tracker/internal/store"
)

type TeamKind string

const (
	// TeamKindRoster teams are managed through the league website roster.
	TeamKindRoster TeamKind = "roster"
	TeamKindCustom TeamKind = "custom"
)

type League struct {
	ID        int64
	Name      string
	Organized bool
}

type Team struct {
	ID           int64
	ExternalID   *int64
	Name         string
	Abbreviation string
	Kind         TeamKind
	League       *League
	players      []*Player
}

func TeamFromRow(row *store.TeamRow) *Team {
	if row == nil {
		return nil
	}
	t := &Team{
		ID:           row.ID,
		ExternalID:   row.ExternalID,
		Name:         row.Name,
		Abbreviation: row.Abbreviation,
		Kind:         TeamKind(row.Kind),
	}
	if row.League != nil {
		t.League = &League{ID: row.League.ID, Name: row.League.Name, Organized: row.League.Organized}
	}
	return t
}

// InOrganizedLeague reports whether a roster team currently plays in a
// league run by the organization.
func (t *Team) InOrganizedLeague() bool {
	return t != nil && t.Kind == TeamKindRoster && t.League != nil && t.League.Organized
}

// AddPlayer appends p to the in-memory roster unless a player with the same
// id is already on it.
func (t *Team) AddPlayer(p *Player) bool {
	for _, existing := range t.players {
		if existing.Equal(p) {
			return false
		}
	}
	t.players = append(t.players, p)
	return true
}

func (t *Team) RemovePlayer(p *Player) {
	for i, existing := range t.players {
		if existing.Equal(p) {
			t.players = append(t.players[:i], t.players[i+1:]...)
			return
		}
	}
}

func (t *Team) Players() []*Player {
	return append([]*Player(nil), t.players...)
}

func (t *Team) String() string {
	if t.Abbreviation == "" {
		return t.Name
	}
	return t.Name + " (" + t.Abbreviation + ")"
}

func (t *Team) EventFields() map[string]any {
	fields := map[string]any{"team_id": t.ID, "name": t.Name, "players": len(t.players)}
	if t.ExternalID != nil {
		fields["external_id"] = *t.ExternalID
	}
	return fields
}
