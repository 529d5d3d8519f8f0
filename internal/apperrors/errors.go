package apperrors

import (
	"github.com/palemoky/undercover/internal/protocol"
)

// GameError 游戏操作被拒绝的原因，同一错误码的错误视为同类
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// Is 按错误码比较，便于 errors.Is 匹配同类错误
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	return ok && t.Code == e.Code
}

func newError(code int) *GameError {
	return &GameError{Code: code, Message: protocol.ErrorMessages[code]}
}

// 预定义错误
var (
	ErrInvalidIdentifier = newError(protocol.ErrCodeInvalidIdentifier)
	ErrInvalidRoomID     = &GameError{Code: protocol.ErrCodeInvalidIdentifier, Message: "room id must be 4-20 characters"}
	ErrInvalidName       = &GameError{Code: protocol.ErrCodeInvalidIdentifier, Message: "name must be 1-12 characters"}
	ErrInvalidWords      = &GameError{Code: protocol.ErrCodeInvalidIdentifier, Message: "words must differ and be 1-30 characters"}

	ErrRoomNotFound   = newError(protocol.ErrCodeRoomNotFound)
	ErrDuplicateRoom  = newError(protocol.ErrCodeDuplicateRoom)
	ErrPlayerNotFound = newError(protocol.ErrCodePlayerNotFound)
	ErrIdentityInRoom = newError(protocol.ErrCodeIdentityInRoom)
	ErrNotHost        = newError(protocol.ErrCodeNotHost)
	ErrCannotKickHost = newError(protocol.ErrCodeCannotKickHost)

	ErrGameStarted            = newError(protocol.ErrCodeGameStarted)
	ErrGameNotStarted         = newError(protocol.ErrCodeGameNotStarted)
	ErrNotEnoughPlayers       = newError(protocol.ErrCodeNotEnoughPlayers)
	ErrInvalidUndercoverCount = newError(protocol.ErrCodeInvalidUndercoverCount)
	ErrSelfVote               = newError(protocol.ErrCodeSelfVote)
	ErrTargetEliminated       = newError(protocol.ErrCodeTargetEliminated)
	ErrVoterNotInGame         = newError(protocol.ErrCodeVoterNotInGame)
)
