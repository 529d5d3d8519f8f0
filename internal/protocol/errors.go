package protocol

// 错误码
const (
	ErrCodeUnknown           = 1000
	ErrCodeInvalidMsg        = 1001
	ErrCodeRateLimit         = 1002 // 速率限制
	ErrCodeInvalidIdentifier = 1003 // 房间号、昵称或词语长度不合法

	ErrCodeRoomNotFound   = 2001
	ErrCodeDuplicateRoom  = 2002
	ErrCodePlayerNotFound = 2003
	ErrCodeIdentityInRoom = 2004 // 身份已在其他房间
	ErrCodeNotHost        = 2005
	ErrCodeCannotKickHost = 2006

	ErrCodeGameStarted            = 3001
	ErrCodeGameNotStarted         = 3002
	ErrCodeNotEnoughPlayers       = 3003
	ErrCodeInvalidUndercoverCount = 3004
	ErrCodeSelfVote               = 3005
	ErrCodeTargetEliminated       = 3006
	ErrCodeVoterNotInGame         = 3007

	ErrCodeServerShutdown = 5003 // 服务器即将关闭
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:                "unknown error",
	ErrCodeInvalidMsg:             "invalid message",
	ErrCodeRateLimit:              "too many requests",
	ErrCodeInvalidIdentifier:      "invalid identifier",
	ErrCodeRoomNotFound:           "room not found",
	ErrCodeDuplicateRoom:          "room already exists",
	ErrCodePlayerNotFound:         "player not found",
	ErrCodeIdentityInRoom:         "already in a room",
	ErrCodeNotHost:                "only the host can do that",
	ErrCodeCannotKickHost:         "the host cannot be kicked",
	ErrCodeGameStarted:            "game already started",
	ErrCodeGameNotStarted:         "game not started",
	ErrCodeNotEnoughPlayers:       "at least 3 players are required",
	ErrCodeInvalidUndercoverCount: "invalid number of undercovers",
	ErrCodeSelfVote:               "you cannot vote for yourself",
	ErrCodeTargetEliminated:       "player already eliminated",
	ErrCodeVoterNotInGame:         "you are not in the game",
	ErrCodeServerShutdown:         "server is shutting down",
}
