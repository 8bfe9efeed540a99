package util

import "errors"

var (
	ErrUserNotFound  = errors.New("用户不存在")
	ErrWordNotFound  = errors.New("单词不存在")
	ErrInvalidWordID = errors.New("invalid word id")
	ErrInvalidGrade  = errors.New("invalid grade")
)
