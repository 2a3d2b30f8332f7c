package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"codequest_admin/internal/common"
	"codequest_admin/internal/domain/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgRoomStore struct {
	db *sql.DB
}

func NewPgRoomStore(db *sql.DB) RoomStore {
	return &pgRoomStore{db: db}
}

func (r *pgRoomStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	query := `SELECT id, code, name, starting_points, max_teams, total_questions, trading_enabled,
	                 penalties_enabled, leaderboard_frozen, status, created_at
	          FROM rooms ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgRoomStore.ListRooms: %w", err)
	}
	defer rows.Close()

	rooms := []model.Room{}
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.Code, &room.Name, &room.StartingPoints, &room.MaxTeams,
			&room.TotalQuestions, &room.TradingEnabled, &room.PenaltiesEnabled, &room.LeaderboardFrozen,
			&room.Status, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgRoomStore.ListRooms scan: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *pgRoomStore) CreateRoom(ctx context.Context, room *model.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	query := `INSERT INTO rooms (id, code, name, starting_points, max_teams, total_questions, trading_enabled,
	                             penalties_enabled, leaderboard_frozen, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, room.ID, room.Code, room.Name, room.StartingPoints, room.MaxTeams,
		room.TotalQuestions, room.TradingEnabled, room.PenaltiesEnabled, room.LeaderboardFrozen, string(room.Status),
	).Scan(&room.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("room code %s already in use: %w", room.Code, common.ErrConflict)
		}
		return fmt.Errorf("pgRoomStore.CreateRoom: %w", err)
	}
	return nil
}

func (r *pgRoomStore) DeleteRoom(ctx context.Context, roomID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
	if err != nil {
		return fmt.Errorf("pgRoomStore.DeleteRoom: %w", err)
	}
	return expectOneRow(res, "room", roomID)
}

func (r *pgRoomStore) ListTeams(ctx context.Context, roomID string) ([]model.Team, error) {
	if err := r.roomExists(ctx, roomID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, points, solved_questions, status, ban_reason, joined_at
		FROM teams WHERE room_id = $1 ORDER BY joined_at ASC, id ASC`, roomID)
	if err != nil {
		return nil, fmt.Errorf("pgRoomStore.ListTeams: %w", err)
	}
	defer rows.Close()

	teams := []model.Team{}
	index := map[string]int{}
	for rows.Next() {
		t := model.Team{BanHistory: []model.BanRecord{}}
		if err := rows.Scan(&t.ID, &t.Name, &t.Points, &t.SolvedQuestions, &t.Status, &t.BanReason, &t.JoinedAt); err != nil {
			return nil, fmt.Errorf("pgRoomStore.ListTeams scan: %w", err)
		}
		index[t.ID] = len(teams)
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgRoomStore.ListTeams rows: %w", err)
	}

	banRows, err := r.db.QueryContext(ctx, `
		SELECT b.team_id, b.reason, b.banned_at, b.unbanned_at
		FROM ban_records b JOIN teams t ON t.id = b.team_id
		WHERE t.room_id = $1 ORDER BY b.team_id, b.seq`, roomID)
	if err != nil {
		return nil, fmt.Errorf("pgRoomStore.ListTeams bans: %w", err)
	}
	defer banRows.Close()
	for banRows.Next() {
		var (
			teamID     string
			rec        model.BanRecord
			unbannedAt sql.NullTime
		)
		if err := banRows.Scan(&teamID, &rec.Reason, &rec.BannedAt, &unbannedAt); err != nil {
			return nil, fmt.Errorf("pgRoomStore.ListTeams ban scan: %w", err)
		}
		if unbannedAt.Valid {
			t := unbannedAt.Time
			rec.UnbannedAt = &t
		}
		if i, ok := index[teamID]; ok {
			teams[i].BanHistory = append(teams[i].BanHistory, rec)
		}
	}
	return teams, banRows.Err()
}

func (r *pgRoomStore) ListQuestions(ctx context.Context, roomID string) ([]model.Question, error) {
	if err := r.roomExists(ctx, roomID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sort_order, title, description, input_format, expected_output, output_format,
		       constraints, difficulty, points, locked, access_code, examples, test_cases
		FROM questions WHERE room_id = $1 ORDER BY sort_order ASC`, roomID)
	if err != nil {
		return nil, fmt.Errorf("pgRoomStore.ListQuestions: %w", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var (
			q                   model.Question
			examples, testCases []byte
		)
		if err := rows.Scan(&q.ID, &q.Order, &q.Title, &q.Description, &q.InputFormat, &q.ExpectedOutput,
			&q.OutputFormat, &q.Constraints, &q.Difficulty, &q.Points, &q.Locked, &q.AccessCode,
			&examples, &testCases); err != nil {
			return nil, fmt.Errorf("pgRoomStore.ListQuestions scan: %w", err)
		}
		if err := json.Unmarshal(examples, &q.Examples); err != nil {
			return nil, fmt.Errorf("pgRoomStore.ListQuestions examples: %w", err)
		}
		if err := json.Unmarshal(testCases, &q.TestCases); err != nil {
			return nil, fmt.Errorf("pgRoomStore.ListQuestions test cases: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *pgRoomStore) CreateQuestion(ctx context.Context, roomID string, q *model.Question) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	examples, testCases, err := questionJSON(*q)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO questions (id, room_id, sort_order, title, description, input_format, expected_output,
		                       output_format, constraints, difficulty, points, locked, access_code, examples, test_cases)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		q.ID, roomID, q.Order, q.Title, q.Description, q.InputFormat, q.ExpectedOutput,
		q.OutputFormat, q.Constraints, string(q.Difficulty), q.Points, q.Locked, q.AccessCode, examples, testCases)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("question order %d already used: %w", q.Order, common.ErrConflict)
		}
		return fmt.Errorf("pgRoomStore.CreateQuestion: %w", err)
	}
	return nil
}

func (r *pgRoomStore) UpdateQuestion(ctx context.Context, roomID string, q model.Question) error {
	examples, testCases, err := questionJSON(q)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE questions SET
			sort_order = $1, title = $2, description = $3, input_format = $4, expected_output = $5,
			output_format = $6, constraints = $7, difficulty = $8, points = $9, locked = $10,
			access_code = $11, examples = $12, test_cases = $13
		WHERE id = $14 AND room_id = $15`,
		q.Order, q.Title, q.Description, q.InputFormat, q.ExpectedOutput,
		q.OutputFormat, q.Constraints, string(q.Difficulty), q.Points, q.Locked,
		q.AccessCode, examples, testCases, q.ID, roomID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("question order %d already used: %w", q.Order, common.ErrConflict)
		}
		return fmt.Errorf("pgRoomStore.UpdateQuestion: %w", err)
	}
	return expectOneRow(res, "question", q.ID)
}

func (r *pgRoomStore) DeleteQuestion(ctx context.Context, roomID, questionID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1 AND room_id = $2`, questionID, roomID)
	if err != nil {
		return fmt.Errorf("pgRoomStore.DeleteQuestion: %w", err)
	}
	return expectOneRow(res, "question", questionID)
}

func (r *pgRoomStore) ListTrades(ctx context.Context, roomID string) ([]model.Trade, error) {
	if err := r.roomExists(ctx, roomID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, seller_id, seller_name, buyer_id, buyer_name, question_id, question_title, price, status, created_at
		FROM trades WHERE room_id = $1 ORDER BY created_at DESC`, roomID)
	if err != nil {
		return nil, fmt.Errorf("pgRoomStore.ListTrades: %w", err)
	}
	defer rows.Close()

	trades := []model.Trade{}
	for rows.Next() {
		var t model.Trade
		if err := rows.Scan(&t.ID, &t.SellerID, &t.SellerName, &t.BuyerID, &t.BuyerName, &t.QuestionID,
			&t.QuestionTitle, &t.Price, &t.Status, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("pgRoomStore.ListTrades scan: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (r *pgRoomStore) ListUnlocks(ctx context.Context, roomID string) ([]model.UnlockOverride, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT team_id, question_id, unlocked_at FROM unlock_overrides
		WHERE room_id = $1 ORDER BY unlocked_at ASC`, roomID)
	if err != nil {
		return nil, fmt.Errorf("pgRoomStore.ListUnlocks: %w", err)
	}
	defer rows.Close()

	unlocks := []model.UnlockOverride{}
	for rows.Next() {
		var u model.UnlockOverride
		if err := rows.Scan(&u.TeamID, &u.QuestionID, &u.UnlockedAt); err != nil {
			return nil, fmt.Errorf("pgRoomStore.ListUnlocks scan: %w", err)
		}
		unlocks = append(unlocks, u)
	}
	return unlocks, rows.Err()
}

// Apply writes the whole change set in one transaction.
func (r *pgRoomStore) Apply(ctx context.Context, cs ChangeSet) (err error) {
	if cs.Empty() {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgRoomStore.Apply begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if cs.Room != nil {
		room := cs.Room.After
		res, execErr := tx.ExecContext(ctx, `
			UPDATE rooms SET name = $1, starting_points = $2, max_teams = $3, total_questions = $4,
			       trading_enabled = $5, penalties_enabled = $6, leaderboard_frozen = $7, status = $8
			WHERE id = $9`,
			room.Name, room.StartingPoints, room.MaxTeams, room.TotalQuestions,
			room.TradingEnabled, room.PenaltiesEnabled, room.LeaderboardFrozen, string(room.Status), cs.RoomID)
		if execErr != nil {
			return fmt.Errorf("pgRoomStore.Apply room: %w", execErr)
		}
		if err = expectOneRow(res, "room", cs.RoomID); err != nil {
			return err
		}
	}

	for _, tc := range cs.Teams {
		if err = r.applyTeam(ctx, tx, cs.RoomID, tc.After); err != nil {
			return err
		}
	}

	if cs.LockQuestions != nil {
		if _, err = tx.ExecContext(ctx, `UPDATE questions SET locked = $1 WHERE room_id = $2`, *cs.LockQuestions, cs.RoomID); err != nil {
			return fmt.Errorf("pgRoomStore.Apply lock questions: %w", err)
		}
	}

	for _, t := range cs.Trades {
		res, execErr := tx.ExecContext(ctx, `UPDATE trades SET status = $1 WHERE id = $2 AND room_id = $3`, string(t.Status), t.ID, cs.RoomID)
		if execErr != nil {
			return fmt.Errorf("pgRoomStore.Apply trade: %w", execErr)
		}
		if err = expectOneRow(res, "trade", t.ID); err != nil {
			return err
		}
	}

	if cs.ClearUnlocks {
		if _, err = tx.ExecContext(ctx, `DELETE FROM unlock_overrides WHERE room_id = $1`, cs.RoomID); err != nil {
			return fmt.Errorf("pgRoomStore.Apply clear unlocks: %w", err)
		}
	}
	if cs.Unlock != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO unlock_overrides (room_id, team_id, question_id, unlocked_at)
			VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
			cs.RoomID, cs.Unlock.TeamID, cs.Unlock.QuestionID, cs.Unlock.UnlockedAt)
		if err != nil {
			return fmt.Errorf("pgRoomStore.Apply unlock: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("pgRoomStore.Apply commit: %w", err)
	}
	return nil
}

func (r *pgRoomStore) applyTeam(ctx context.Context, tx *sql.Tx, roomID string, t model.Team) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE teams SET points = $1, solved_questions = $2, status = $3, ban_reason = $4
		WHERE id = $5 AND room_id = $6`,
		t.Points, t.SolvedQuestions, string(t.Status), t.BanReason, t.ID, roomID)
	if err != nil {
		return fmt.Errorf("pgRoomStore.Apply team: %w", err)
	}
	if err := expectOneRow(res, "team", t.ID); err != nil {
		return err
	}

	// History is append-only with a mutable unbanned_at, so upsert by position.
	for seq, rec := range t.BanHistory {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ban_records (team_id, seq, reason, banned_at, unbanned_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (team_id, seq) DO UPDATE SET unbanned_at = EXCLUDED.unbanned_at`,
			t.ID, seq, rec.Reason, rec.BannedAt, rec.UnbannedAt)
		if err != nil {
			return fmt.Errorf("pgRoomStore.Apply ban record: %w", err)
		}
	}
	return nil
}

func (r *pgRoomStore) roomExists(ctx context.Context, roomID string) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM rooms WHERE id = $1)`, roomID).Scan(&exists); err != nil {
		return fmt.Errorf("pgRoomStore.roomExists: %w", err)
	}
	if !exists {
		return fmt.Errorf("room %s: %w", roomID, common.ErrNotFound)
	}
	return nil
}

func expectOneRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, common.ErrNotFound)
	}
	return nil
}

func questionJSON(q model.Question) ([]byte, []byte, error) {
	examples := q.Examples
	if examples == nil {
		examples = []model.Example{}
	}
	testCases := q.TestCases
	if testCases == nil {
		testCases = []model.TestCase{}
	}
	ex, err := json.Marshal(examples)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding examples: %w", err)
	}
	tc, err := json.Marshal(testCases)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding test cases: %w", err)
	}
	return ex, tc, nil
}
