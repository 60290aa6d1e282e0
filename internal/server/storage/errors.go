package storage

import "errors"

var (
	ErrKeywordNotFound = errors.New("keyword not found")
	ErrChannelNotFound = errors.New("channel not found")
	ErrChannelExists   = errors.New("channel already registered")
	ErrSettingNotFound = errors.New("setting not found")
)
