package domain

import "strconv"

type UserID int64

func (uid UserID) String() string {
	return strconv.FormatInt(int64(uid), 10)
}

type Username string

func (un Username) String() string {
	return string(un)
}

// User identifies the owner of chat messages and command records.
type User struct {
	ID       UserID
	Username Username
}

// BotUser is the synthetic identity attached to messages generated from
// bot responses.
var BotUser = User{ID: 0, Username: "Bot"}
