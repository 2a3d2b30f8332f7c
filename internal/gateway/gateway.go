package gateway

import (
	"context"
	"net/http"
	"net/url"
)

// Gateway wraps every backend endpoint the admin console uses.
type Gateway struct {
	client *Client
}

func New(client *Client) *Gateway {
	return &Gateway{client: client}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	TeamName string `json:"teamName"`
	Role     string `json:"role"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	TeamName string `json:"teamName"`
	Role     string `json:"role"`
}

type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type CreateRoomRequest struct {
	RoomName      string `json:"roomName"`
	InitialPoints int    `json:"initialPoints"`
}

type RoomData struct {
	ID            string         `json:"_id"`
	RoomCode      string         `json:"roomCode"`
	RoomName      string         `json:"roomName"`
	InitialPoints int            `json:"initialPoints"`
	AdminID       string         `json:"adminId"`
	Status        string         `json:"status"`
	Participants  []Participant  `json:"participants"`
	Questions     []QuestionData `json:"questions"`
	CreatedAt     Timestamp      `json:"createdAt"`
}

type Example struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation"`
}

type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	IsHidden       bool   `json:"isHidden"`
}

type QuestionRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	InputFormat  string     `json:"inputFormat"`
	OutputFormat string     `json:"outputFormat"`
	Constraints  string     `json:"constraints"`
	Examples     []Example  `json:"examples"`
	TestCases    []TestCase `json:"testCases"`
	Points       int        `json:"points"`
	Difficulty   string     `json:"difficulty"`
	AccessCode   string     `json:"accessCode,omitempty"`
}

type QuestionData struct {
	ID           string     `json:"_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	InputFormat  string     `json:"inputFormat"`
	OutputFormat string     `json:"outputFormat"`
	Constraints  string     `json:"constraints"`
	Examples     []Example  `json:"examples"`
	TestCases    []TestCase `json:"testCases"`
	Points       int        `json:"points"`
	Difficulty   string     `json:"difficulty"`
	AccessCode   string     `json:"accessCode"`
	Order        int        `json:"order"`
}

type Participant struct {
	ID              string    `json:"_id"`
	UserID          string    `json:"userId"`
	Username        string    `json:"username"`
	TeamName        string    `json:"teamName"`
	Points          int       `json:"points"`
	QuestionsSolved int       `json:"questionsSolved"`
	IsBanned        bool      `json:"isBanned"`
	BanReason       string    `json:"banReason"`
	JoinedAt        Timestamp `json:"joinedAt"`
}

type LeaderboardRow struct {
	Rank            int    `json:"rank"`
	UserID          string `json:"userId"`
	Username        string `json:"username"`
	TeamName        string `json:"teamName"`
	Points          int    `json:"points"`
	QuestionsSolved int    `json:"questionsSolved"`
}

type Party struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	TeamName string `json:"teamName"`
}

type TransactionQuestion struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

type Transaction struct {
	ID        string              `json:"_id"`
	Seller    Party               `json:"seller"`
	Buyer     Party               `json:"buyer"`
	Question  TransactionQuestion `json:"question"`
	Price     int                 `json:"price"`
	Status    string              `json:"status"`
	CreatedAt Timestamp           `json:"createdAt"`
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (g *Gateway) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := g.client.Do(ctx, http.MethodPost, "/auth/login", "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *Gateway) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Role = "admin"
	var resp AuthResponse
	if err := g.client.Do(ctx, http.MethodPost, "/auth/register", "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *Gateway) GetCurrentUser(ctx context.Context) (*User, error) {
	var resp struct {
		Success bool `json:"success"`
		User    User `json:"user"`
	}
	if err := g.client.Do(ctx, http.MethodGet, "/auth/me", "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (g *Gateway) CreateRoom(ctx context.Context, req CreateRoomRequest) (*RoomData, error) {
	var resp envelope[RoomData]
	if err := g.client.Do(ctx, http.MethodPost, "/admin/rooms", "/admin/rooms", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (g *Gateway) GetMyRooms(ctx context.Context) ([]RoomData, error) {
	var resp envelope[[]RoomData]
	if err := g.client.Do(ctx, http.MethodGet, "/admin/my-rooms", "/admin/my-rooms", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (g *Gateway) CloseRoom(ctx context.Context, roomID string) error {
	return g.client.Do(ctx, http.MethodPut, "/admin/rooms/{id}/close", "/admin/rooms/"+url.PathEscape(roomID)+"/close", nil, &messageResponse{})
}

func (g *Gateway) ReopenRoom(ctx context.Context, roomID string) error {
	return g.client.Do(ctx, http.MethodPut, "/admin/rooms/{id}/reopen", "/admin/rooms/"+url.PathEscape(roomID)+"/reopen", nil, &messageResponse{})
}

func (g *Gateway) DeleteRoom(ctx context.Context, roomID string) error {
	return g.client.Do(ctx, http.MethodDelete, "/admin/rooms/{id}", "/admin/rooms/"+url.PathEscape(roomID), nil, &messageResponse{})
}

func (g *Gateway) AddQuestion(ctx context.Context, roomID string, req QuestionRequest) (*QuestionData, error) {
	var resp envelope[QuestionData]
	if err := g.client.Do(ctx, http.MethodPost, "/rooms/{id}/questions", "/rooms/"+url.PathEscape(roomID)+"/questions", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (g *Gateway) GetRoomParticipants(ctx context.Context, roomID string) ([]Participant, error) {
	var resp envelope[[]Participant]
	if err := g.client.Do(ctx, http.MethodGet, "/admin/rooms/{id}/participants", "/admin/rooms/"+url.PathEscape(roomID)+"/participants", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (g *Gateway) GetLeaderboard(ctx context.Context, roomID string) ([]LeaderboardRow, error) {
	var resp envelope[[]LeaderboardRow]
	if err := g.client.Do(ctx, http.MethodGet, "/admin/rooms/{id}/leaderboard", "/admin/rooms/"+url.PathEscape(roomID)+"/leaderboard", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (g *Gateway) BanUser(ctx context.Context, roomID, playerID string) error {
	path := "/admin/rooms/" + url.PathEscape(roomID) + "/ban/" + url.PathEscape(playerID)
	return g.client.Do(ctx, http.MethodPut, "/admin/rooms/{id}/ban/{playerId}", path, nil, &messageResponse{})
}

func (g *Gateway) UnbanUser(ctx context.Context, roomID, playerID string) error {
	path := "/admin/rooms/" + url.PathEscape(roomID) + "/unban/" + url.PathEscape(playerID)
	return g.client.Do(ctx, http.MethodPut, "/admin/rooms/{id}/unban/{playerId}", path, nil, &messageResponse{})
}

func (g *Gateway) GetRoomTransactions(ctx context.Context, roomID string) ([]Transaction, error) {
	var resp envelope[[]Transaction]
	if err := g.client.Do(ctx, http.MethodGet, "/rooms/{id}/transactions/all", "/rooms/"+url.PathEscape(roomID)+"/transactions/all", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
