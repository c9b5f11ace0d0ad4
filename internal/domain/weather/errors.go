package weather

import (
	"errors"
	"fmt"
)

// 天気取得のエラー種別
var (
	ErrInvalidQuery       = errors.New("invalid weather query")
	ErrLocationNotFound   = errors.New("location not found")
	ErrInvalidCredential  = errors.New("weather credential invalid")
	ErrRateLimited        = errors.New("weather rate limited")
	ErrServiceUnavailable = errors.New("weather service unavailable")
	ErrProvider           = errors.New("weather provider error")
)

// Error は種別付きの天気取得エラー
// Message は利用者向けの文言で、プロバイダーの応答本文は含まない
type Error struct {
	Kind    error
	Query   string
	Status  int
	Message string
	Err     error
}

func newError(kind error, q Query, status int, message string) *Error {
	return &Error{Kind: kind, Query: q.String(), Status: status, Message: message}
}

// Error はエラーメッセージを返す
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Query)
}

// Is は種別による比較を可能にする
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// Unwrap は原因エラーを返す
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound は都市が見つからないエラーを作成
func NotFound(q Query) *Error {
	return newError(ErrLocationNotFound, q, 404, fmt.Sprintf("City %q not found. Please check the spelling.", q.String()))
}

// InvalidCredential は認証情報不正のエラーを作成
func InvalidCredential(q Query) *Error {
	return newError(ErrInvalidCredential, q, 401, "Invalid API key. Please check your OpenWeather API key.")
}

// RateLimited はレート制限エラーを作成
func RateLimited(q Query) *Error {
	return newError(ErrRateLimited, q, 429, "API rate limit exceeded. Please try again later.")
}

// Unavailable は接続不可のエラーを作成
func Unavailable(q Query, cause error) *Error {
	e := newError(ErrServiceUnavailable, q, 0, "Unable to connect to weather service. Please check your internet connection.")
	e.Err = cause
	return e
}

// ProviderFailure はその他のプロバイダーエラーを作成
func ProviderFailure(q Query, status int, message string) *Error {
	if message == "" {
		message = "Unknown error"
	}
	return newError(ErrProvider, q, status, fmt.Sprintf("Weather API error: %s", message))
}

// FromStatus はHTTPステータスからエラーを分類
func FromStatus(q Query, status int, message string) *Error {
	switch status {
	case 404:
		return NotFound(q)
	case 401:
		return InvalidCredential(q)
	case 429:
		return RateLimited(q)
	default:
		return ProviderFailure(q, status, message)
	}
}
