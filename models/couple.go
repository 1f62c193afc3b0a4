package models

// Player is one half of a couple. Managed entirely by the remote service.
type Player struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Nickname *string `json:"nickname,omitempty"`
}

// Couple — пара из двух игроков, выступающая как единый участник.
// Существует независимо от этапов; принадлежность группе отслеживается
// Assignment Engine, не удалённым хранилищем.
type Couple struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	FirstPlayer  *Player `json:"first_player,omitempty"`
	SecondPlayer *Player `json:"second_player,omitempty"`
}
