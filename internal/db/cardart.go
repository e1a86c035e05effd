package db

import (
	"database/sql"
	"fmt"
)

// SaveCardArt upserts the uploaded artwork for one card slot of a room.
func (d *DB) SaveCardArt(roomID string, slot int, data string) error {
	_, err := d.conn.Exec(`
		INSERT INTO card_art (room_id, slot, image_data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (room_id, slot) DO UPDATE SET image_data = $3, updated_at = now()
	`, roomID, slot, data)
	if err != nil {
		return fmt.Errorf("saving card art: %w", err)
	}
	return nil
}

// LoadCardArt returns the stored artwork for both card slots of a room.
// Missing slots come back empty.
func (d *DB) LoadCardArt(roomID string) ([2]string, error) {
	var art [2]string
	rows, err := d.conn.Query(`
		SELECT slot, image_data FROM card_art WHERE room_id = $1
	`, roomID)
	if err != nil {
		if err == sql.ErrNoRows {
			return art, nil
		}
		return art, fmt.Errorf("loading card art: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var slot int
		var data string
		if err := rows.Scan(&slot, &data); err != nil {
			return art, fmt.Errorf("scanning card art: %w", err)
		}
		if slot == 0 || slot == 1 {
			art[slot] = data
		}
	}
	if err := rows.Err(); err != nil {
		return art, fmt.Errorf("loading card art: %w", err)
	}
	return art, nil
}
