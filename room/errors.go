package room

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrDuplicateName  = errors.New("name already taken in this room")
	ErrRoomFull       = errors.New("room is full")
	ErrWrongPassword  = errors.New("wrong password")
	ErrGameStarted    = errors.New("game already started")
	ErrInvalidName    = errors.New("invalid player name")
)
