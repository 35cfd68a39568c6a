package model

import "time"

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// UserProfile 返回给客户端的用户信息
type UserProfile struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

func (u User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}
