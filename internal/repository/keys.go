package repository

import (
	"fmt"

	"talento/internal/models"
)

// slotKey names the persisted slot for one chat or CLI profile.
func slotKey(slot string) string {
	return fmt.Sprintf("%s:%s", models.SessionSlotKey, slot)
}
