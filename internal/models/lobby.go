// internal/models/lobby.go
package models

// LobbyInfo summarises an open room for the lobby browser.
type LobbyInfo struct {
	RoomCode    string `json:"roomId"`
	HostName    string `json:"hostName"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	Difficulty  string `json:"difficulty"`
}
