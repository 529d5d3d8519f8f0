package room

import (
	"strings"
	"unicode/utf8"

	"github.com/palemoky/undercover/internal/apperrors"
)

const (
	minRoomIDLength = 4
	maxRoomIDLength = 20
	minNameLength   = 1
	maxNameLength   = 12
	minWordLength   = 1
	maxWordLength   = 30
	minPlayers      = 3
)

func lengthBetween(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lo && n <= hi
}

// validateRoomID 去除首尾空白后校验房间号
func validateRoomID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if !lengthBetween(id, minRoomIDLength, maxRoomIDLength) {
		return "", apperrors.ErrInvalidRoomID
	}
	return id, nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if !lengthBetween(name, minNameLength, maxNameLength) {
		return "", apperrors.ErrInvalidName
	}
	return name, nil
}

// validateWords 自定义词对必须不同且长度合法
func validateWords(pair *[2]string) (a, b string, err error) {
	a = strings.TrimSpace(pair[0])
	b = strings.TrimSpace(pair[1])
	if a == b || !lengthBetween(a, minWordLength, maxWordLength) || !lengthBetween(b, minWordLength, maxWordLength) {
		return "", "", apperrors.ErrInvalidWords
	}
	return a, b, nil
}

// MaxUndercover 卧底人数上限，保证开局时卧底至少比平民少一人
func MaxUndercover(players int) int {
	if players%2 == 0 {
		return players/2 - 1
	}
	return (players - 1) / 2
}
