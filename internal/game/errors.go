package game

import (
	"errors"
	"fmt"

	"github.com/DoyleJ11/auction-dice-backend/internal/engine"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room already has a guest")
	ErrNoFreeCode   = errors.New("no free room code, try again later")

	ErrCodeMismatch   = fmt.Errorf("%w: room code does not match", engine.ErrValidation)
	ErrUnknownLeader  = fmt.Errorf("%w: leader is not seated in this room", engine.ErrValidation)
	ErrNoBid          = fmt.Errorf("%w: place a bid before rolling", engine.ErrValidation)
	ErrRoomNotPlaying = fmt.Errorf("%w: room is still waiting for a guest", engine.ErrValidation)
	ErrInvalidName    = fmt.Errorf("%w: name must not be empty", engine.ErrValidation)
)
