package sync

import (
	"github.com/starford/raido/internal/fingerprint"
	"github.com/starford/raido/internal/models"
)

// HashCard fingerprints the syncable content of a card. CreatedAt is
// excluded so a re-serialized but semantically unchanged card always
// yields the same hash.
func HashCard(card models.Card) (string, error) {
	card.CreatedAt = ""
	return fingerprint.Sum(card)
}

// HashObject projects an object onto its card content and fingerprints
// it. The second return is false when the object carries no URL and is
// therefore not syncable.
func HashObject(obj *models.VaultObject) (string, bool, error) {
	card := ObjectToCard(obj)
	if card == nil {
		return "", false, nil
	}
	h, err := HashCard(*card)
	if err != nil {
		return "", false, err
	}
	return h, true, nil
}
