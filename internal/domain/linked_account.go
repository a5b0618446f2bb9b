package domain

import "tracker/internal/store"

// LinkedAccount is the community chat account a player linked to.
type LinkedAccount struct {
	ID        int64
	DiscordID string
	Name      string
}

func linkedAccountFromRow(row *store.LinkedAccountRow) *LinkedAccount {
	if row == nil {
		return nil
	}
	return &LinkedAccount{ID: row.ID, DiscordID: row.DiscordID, Name: row.Name}
}
