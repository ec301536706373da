package store

import "context"

func (s *Store) InsertChatMessage(ctx context.Context, m ChatMessageRow) (ChatMessageRow, error) {
	if m.ID == "" {
		m.ID = NewID()
	}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO chat_messages (id, session_code, player_id, pseudo, type, body)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		m.ID, m.SessionCode, m.PlayerID, m.Pseudo, string(m.Type), m.Body)
	if err := row.Scan(&m.CreatedAt); err != nil {
		return ChatMessageRow{}, err
	}
	return m, nil
}

func (s *Store) ListChatMessages(ctx context.Context, sessionCode string, limit int) ([]ChatMessageRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, session_code, player_id, pseudo, type, body, created_at
		FROM chat_messages WHERE session_code = $1
		ORDER BY created_at DESC LIMIT $2`, sessionCode, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChatMessageRow
	for rows.Next() {
		var m ChatMessageRow
		var typ string
		if err := rows.Scan(&m.ID, &m.SessionCode, &m.PlayerID, &m.Pseudo, &typ, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Type = ChatMessageType(typ)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Oldest first for display.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
