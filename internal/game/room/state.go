package room

// RoomState 房间状态
type RoomState int

const (
	RoomStateWaiting RoomState = iota
	RoomStatePlaying
	RoomStateEnded
)

func (s RoomState) String() string {
	switch s {
	case RoomStateWaiting:
		return "waiting"
	case RoomStatePlaying:
		return "playing"
	case RoomStateEnded:
		return "ended"
	default:
		return "unknown"
	}
}
